// Package checkers holds the built-in self-fixing behaviors.
package checkers

import (
	"fmt"

	"github.com/fulmenhq/autocheck/internal/asset"
	"github.com/fulmenhq/autocheck/internal/check"
	"github.com/fulmenhq/autocheck/pkg/config"
)

// Behavior type names.
const (
	TypeCanvasSetter  = "CanvasSetter"
	TypeImageSetter   = "ImageSetter"
	TypeCanvasScaler  = "CanvasScaler"
	TypeImage         = "Image"
	TypeRectTransform = "RectTransform"
	TypeTransform     = "Transform"
)

// CanvasSetter forces the sibling CanvasScaler into screen-size scaling.
type CanvasSetter struct {
	behavior *asset.Behavior
	cfg      config.CanvasCheckerConfig
}

func (c *CanvasSetter) Check() error {
	scaler, err := companion(c.behavior, TypeCanvasScaler)
	if err != nil {
		return err
	}
	if err := scaler.Set("ui_scale_mode", c.cfg.ScaleMode); err != nil {
		return err
	}
	return scaler.Set("reference_resolution", c.cfg.ReferenceResolution)
}

// ImageSetter forces the colour of the sibling Image.
type ImageSetter struct {
	behavior *asset.Behavior
	cfg      config.ImageCheckerConfig
}

func (s *ImageSetter) Check() error {
	img, err := companion(s.behavior, TypeImage)
	if err != nil {
		return err
	}
	return img.Set("color", s.cfg.Color)
}

func companion(b *asset.Behavior, typ string) (*asset.Behavior, error) {
	n := b.Node()
	if n == nil {
		return nil, fmt.Errorf("%w: %s has no node", check.ErrMissingCompanion, b.Type)
	}
	c := n.Behavior(typ)
	if c == nil {
		return nil, fmt.Errorf("%w: cannot find %s on %s", check.ErrMissingCompanion, typ, n.Path())
	}
	return c, nil
}

// Register declares the built-in behavior types on reg.
func Register(reg *check.Registry, cfg config.CheckersConfig) error {
	types := []check.TypeInfo{
		{
			Name:        TypeCanvasSetter,
			Checkable:   true,
			Description: "sets the sibling CanvasScaler to scale with screen size",
			New: func(b *asset.Behavior) check.Checkable {
				return &CanvasSetter{behavior: b, cfg: cfg.Canvas}
			},
		},
		{
			Name:        TypeImageSetter,
			Checkable:   true,
			Description: "sets the sibling Image colour",
			New: func(b *asset.Behavior) check.Checkable {
				return &ImageSetter{behavior: b, cfg: cfg.Image}
			},
		},
		{Name: TypeCanvasScaler, Description: "canvas scaling settings"},
		{Name: TypeImage, Description: "image rendering settings"},
		{Name: TypeRectTransform, Description: "UI layout rectangle"},
		{Name: TypeTransform, Description: "position, rotation and scale"},
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry(cfg config.CheckersConfig) (*check.Registry, error) {
	reg := check.NewRegistry()
	if err := Register(reg, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}
