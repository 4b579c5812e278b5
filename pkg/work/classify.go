package work

import "path/filepath"

// Plan is the classified input of one run
type Plan struct {
	Templates []string `json:"templates"`
	Documents []string `json:"documents"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Total counts the asset items the run will process.
func (p Plan) Total() int { return len(p.Templates) + len(p.Documents) }

// Empty reports whether there is nothing to process.
func (p Plan) Empty() bool { return p.Total() == 0 }

// Classify routes each path to the template or document family by
// extension, keeping input order and duplicates. Other paths are dropped
// into Skipped.
func Classify(paths []string, templateExts, documentExts []string) Plan {
	plan := Plan{Templates: []string{}, Documents: []string{}}
	for _, path := range paths {
		ext := filepath.Ext(path)
		switch {
		case contains(templateExts, ext):
			plan.Templates = append(plan.Templates, path)
		case contains(documentExts, ext):
			plan.Documents = append(plan.Documents, path)
		default:
			plan.Skipped = append(plan.Skipped, path)
		}
	}
	return plan
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
