package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/fulmenhq/autocheck/internal/pipeline"
)

// formatJUnit emits one testsuite per asset kind and one testcase per item,
// so CI systems can surface failed assets next to unit test results.
func formatJUnit(r *pipeline.Report) (string, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", "autocheck")
	suites.CreateAttr("tests", strconv.Itoa(len(r.Items)))
	suites.CreateAttr("failures", strconv.Itoa(countFailing(r.Items)))
	suites.CreateAttr("time", seconds(r.Duration().Seconds()))

	for _, kind := range []pipeline.Kind{pipeline.KindTemplate, pipeline.KindDocument} {
		var items []pipeline.ItemResult
		total := 0.0
		for _, it := range r.Items {
			if it.Kind == kind {
				items = append(items, it)
				total += it.Duration.Seconds()
			}
		}
		if len(items) == 0 {
			continue
		}

		suite := suites.CreateElement("testsuite")
		suite.CreateAttr("name", string(kind)+"s")
		suite.CreateAttr("tests", strconv.Itoa(len(items)))
		suite.CreateAttr("failures", strconv.Itoa(countFailing(items)))
		suite.CreateAttr("time", seconds(total))
		if !r.StartedAt.IsZero() {
			suite.CreateAttr("timestamp", r.StartedAt.Format("2006-01-02T15:04:05"))
		}

		for _, it := range items {
			tc := suite.CreateElement("testcase")
			tc.CreateAttr("name", it.Path)
			tc.CreateAttr("classname", "autocheck."+string(kind))
			tc.CreateAttr("time", seconds(it.Duration.Seconds()))

			switch {
			case it.Status == pipeline.StatusFailed:
				fail := tc.CreateElement("failure")
				fail.CreateAttr("type", "error")
				fail.CreateAttr("message", it.Error)
				fail.SetText(it.Error)
			case len(it.Failures) > 0:
				lines := make([]string, 0, len(it.Failures))
				for _, fl := range it.Failures {
					lines = append(lines, fmt.Sprintf("%s on %s: %s", fl.Behavior, fl.Node, fl.Error))
				}
				fail := tc.CreateElement("failure")
				fail.CreateAttr("type", "check")
				fail.CreateAttr("message", fmt.Sprintf("%d check(s) could not be applied", len(it.Failures)))
				fail.SetText(strings.Join(lines, "\n"))
			default:
				out := tc.CreateElement("system-out")
				out.SetText(fmt.Sprintf("%s: %d check(s), %d changed", it.Status, it.Invoked, it.Changed))
			}
		}
	}

	if r.Error != "" {
		errSuite := suites.CreateElement("system-err")
		errSuite.SetText(r.Error)
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to render JUnit XML: %w", err)
	}
	return out, nil
}

func countFailing(items []pipeline.ItemResult) int {
	n := 0
	for _, it := range items {
		if it.Status == pipeline.StatusFailed || len(it.Failures) > 0 {
			n++
		}
	}
	return n
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
