package portal

import (
	"regexp"
	"strings"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/copilot-bot/copilot/internal/game"
)

var trailingLevel = regexp.MustCompile(`\s+level\s+\d+$`)

type Query struct {
	Labels         []game.GroundLabel
	LeaderZone     string
	CurrentZone    string
	IsHideout      bool
	AreaLevel      int
	LeaderPosition game.Vector3
	// Force skips the search gate, used while a portal transition is active.
	Force bool
}

// Matcher picks the ground label the bot should click to follow the leader into another zone.
// The vocabulary (templates, special portals, keywords) comes from settings.
type Matcher struct {
	policy config.PolicyCfg
}

func NewMatcher(policy config.PolicyCfg) Matcher {
	return Matcher{policy: policy}
}

// ShouldSearch reports whether a portal search is worth doing at all. Following inside the same
// zone is the common case and never needs one.
func (m Matcher) ShouldSearch(q Query) bool {
	differ := zonesDiffer(q.LeaderZone, q.CurrentZone)
	return q.Force || differ || q.IsHideout || (q.AreaLevel >= m.policy.HighLevelArea && differ)
}

// FindBestPortal runs the matching tiers in order and returns the candidate of the first tier
// that matched anything, the one closest to the leader when several labels match:
//  1. the label contains the leader zone name
//  2. the label matches a portal template for the zone
//  3. the label contains a special portal fragment
//  4. hideout and town keywords
func (m Matcher) FindBestPortal(q Query) (*game.GroundLabel, bool) {
	if !m.ShouldSearch(q) {
		return nil, false
	}

	labels := visible(q.Labels)
	if len(labels) == 0 {
		return nil, false
	}

	variants := zoneVariants(q.LeaderZone)
	tiers := []func(text string) bool{
		func(text string) bool { return containsAny(strings.ToLower(text), variants) },
		func(text string) bool { return m.matchesTemplate(text, variants) },
		func(text string) bool { return containsAny(strings.ToLower(text), lowerAll(m.policy.SpecialPortals)) },
		func(text string) bool { return m.matchesKeywords(text, q.LeaderZone) },
	}

	for _, matches := range tiers {
		var candidates []game.GroundLabel
		for _, l := range labels {
			if matches(l.Text) {
				candidates = append(candidates, l)
			}
		}
		if best, found := nearest(candidates, q.LeaderPosition); found {
			return best, true
		}
	}

	return nil, false
}

// NearestPortalLike returns the closest label that looks like any kind of portal within radius
// of around, regardless of where it leads.
func (m Matcher) NearestPortalLike(labels []game.GroundLabel, around game.Vector3, radius float64) (*game.GroundLabel, bool) {
	keywords := lowerAll(m.policy.PortalKeywords)
	var candidates []game.GroundLabel
	for _, l := range visible(labels) {
		if l.Position.Distance(around) > radius {
			continue
		}
		if containsAny(strings.ToLower(l.Text), keywords) {
			candidates = append(candidates, l)
		}
	}
	return nearest(candidates, around)
}

func (m Matcher) matchesTemplate(text string, variants []string) bool {
	label := normalize(text)
	for _, tmpl := range m.policy.PortalTemplates {
		for _, v := range variants {
			pattern := normalize(strings.ReplaceAll(strings.ToLower(tmpl), "{zone}", v))
			if pattern != "" && strings.Contains(label, pattern) {
				return true
			}
		}
	}
	return false
}

func (m Matcher) matchesKeywords(text, zone string) bool {
	label := strings.ToLower(text)
	zone = strings.ToLower(zone)

	hideout := lowerAll(m.policy.HideoutKeywords)
	if containsAny(zone, hideout) && containsAny(label, hideout) {
		return true
	}
	town := lowerAll(m.policy.TownKeywords)
	return containsAny(zone, town) && containsAny(label, town)
}

// zoneVariants returns the lowercase zone name plus the variants without a trailing "Level N"
// and without a leading "The".
func zoneVariants(zone string) []string {
	full := strings.ToLower(strings.TrimSpace(zone))
	if full == "" {
		return nil
	}

	variants := []string{full}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if len(v) < 3 {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	noLevel := trailingLevel.ReplaceAllString(full, "")
	add(noLevel)
	add(strings.TrimPrefix(full, "the "))
	add(strings.TrimPrefix(noLevel, "the "))

	return variants
}

func zonesDiffer(leaderZone, currentZone string) bool {
	if strings.TrimSpace(leaderZone) == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(leaderZone), strings.TrimSpace(currentZone))
}

func visible(labels []game.GroundLabel) []game.GroundLabel {
	out := make([]game.GroundLabel, 0, len(labels))
	for _, l := range labels {
		if l.Visible && strings.TrimSpace(l.Text) != "" {
			out = append(out, l)
		}
	}
	return out
}

func nearest(labels []game.GroundLabel, to game.Vector3) (*game.GroundLabel, bool) {
	if len(labels) == 0 {
		return nil, false
	}
	best := labels[0]
	for _, l := range labels[1:] {
		if l.Position.Distance(to) < best.Position.Distance(to) {
			best = l
		}
	}
	return &best, true
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// normalize keeps letters, digits and single spaces.
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			space = true
		}
	}
	return b.String()
}
