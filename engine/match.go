// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"path/filepath"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/tlahitte/karamove-texture-drawing/config"
	"github.com/tlahitte/karamove-texture-drawing/report"
	"github.com/tlahitte/karamove-texture-drawing/scan"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// assign picks the target object of each new drawing according to the
// match policy. Drawings without a target are counted as waiting and
// left in the watch folder.
func (c *Controller) assign(files []scan.File, selected string, res *PassResult) []assignment {
	if selected != "" && !c.st.Bindings.Has(selected) {
		c.notify(report.Warn, report.Errorf(report.ConfigError, "refresh", "selected object is not registered for texture sync").WithObject(selected))
		selected = ""
	}
	var todo []assignment
	for _, f := range files {
		id := selected
		if c.cfg.Match == config.MatchFileName {
			if m := c.matchName(f.Name); m != "" {
				id = m
			}
		}
		if id == "" {
			res.Waiting++
			continue
		}
		todo = append(todo, assignment{file: f, object: id})
	}
	if res.Waiting > 0 {
		c.inform("%d new drawing(s) waiting: select a registered object and refresh", res.Waiting)
	}
	return todo
}

// fold normalizes a name for comparison: file systems may hand back
// names in decomposed form, and case is ignored.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// matchName returns the registered object a drawing file name refers to,
// or "". An object matches when the file stem equals its identifier or
// starts with it followed by a separator (the longest such identifier
// wins), and otherwise when the Jaro-Winkler similarity between stem and
// identifier is at least the configured threshold.
func (c *Controller) matchName(name string) string {
	stem := fold(strings.TrimSuffix(name, filepath.Ext(name)))
	ids := c.st.Bindings.Keys()
	best := ""
	for _, id := range ids {
		lid := fold(id)
		if stem == lid {
			return id
		}
		if len(stem) > len(lid) && strings.HasPrefix(stem, lid) && strings.ContainsRune("_-. ", rune(stem[len(lid)])) && len(id) > len(best) {
			best = id
		}
	}
	if best != "" {
		return best
	}
	jw := metrics.NewJaroWinkler()
	score := 0.0
	for _, id := range ids {
		s := strutil.Similarity(stem, fold(id), jw)
		if s >= c.cfg.MatchThreshold && s > score {
			best, score = id, s
		}
	}
	return best
}
