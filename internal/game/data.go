package game

import (
	"strings"
)

// Data is the per-tick snapshot of everything the bot reads from the host. It is refreshed once
// at the beginning of each tick and treated as read-only afterwards.
type Data struct {
	InGame     bool `json:"inGame"`
	Loading    bool `json:"loading"`
	Foreground bool `json:"foreground"`

	Area       AreaInfo        `json:"area"`
	PlayerUnit PlayerUnit      `json:"playerUnit"`
	Players    []Entity        `json:"-"`
	Labels     []GroundLabel   `json:"-"`
	Party      []PartyMember   `json:"party"`
	OpenPanels map[string]bool `json:"openPanels"`

	TeleportDialog Dialog `json:"teleportDialog"`
	// Window is the game client area in screen coordinates relative to itself (Left/Top are 0).
	Window Rect `json:"window"`
}

type AreaInfo struct {
	Name      string `json:"name"`
	Hash      uint32 `json:"hash"`
	Level     int    `json:"level"`
	IsHideout bool   `json:"isHideout"`
	IsTown    bool   `json:"isTown"`
}

type PlayerUnit struct {
	Name     string   `json:"name"`
	Position Vector3  `json:"position"`
	Alive    bool     `json:"alive"`
	Buffs    []string `json:"buffs"`
}

// Entity is a player-type entity in the current zone. Valid is false when the host handle went
// stale between the read and the snapshot.
type Entity struct {
	ID       uint32
	Name     string
	Position Vector3
	Valid    bool
	Buffs    []string
}

// GroundLabel is a clickable label rendered on the ground (portals, transitions, waypoints).
// The host owns the underlying element; ID is the handle used to re-resolve it on later ticks.
type GroundLabel struct {
	ID       uint64  `json:"id"`
	Text     string  `json:"text"`
	Position Vector3 `json:"position"`
	Rect     Rect    `json:"rect"`
	Visible  bool    `json:"visible"`
}

// PartyMember is an entry of the party roster panel.
type PartyMember struct {
	Name     string `json:"name"`
	ZoneName string `json:"zoneName"`
	// TeleportButton is the screen position of the "teleport to member" icon, nil when the
	// host could not resolve it.
	TeleportButton *Point `json:"teleportButton,omitempty"`
}

type Dialog struct {
	Open          bool  `json:"open"`
	ConfirmButton Point `json:"confirmButton"`
}

func (d Data) FindPlayer(name string) (Entity, bool) {
	for _, e := range d.Players {
		if e.Valid && strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entity{}, false
}

func (d Data) FindPartyMember(name string) (PartyMember, bool) {
	for _, m := range d.Party {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return PartyMember{}, false
}

// FindLabel re-resolves a ground label by its host handle. Labels that are no longer visible are
// reported as missing.
func (d Data) FindLabel(id uint64) (GroundLabel, bool) {
	for _, l := range d.Labels {
		if l.ID == id && l.Visible {
			return l, true
		}
	}
	return GroundLabel{}, false
}

func (d Data) VisibleLabels() []GroundLabel {
	labels := make([]GroundLabel, 0, len(d.Labels))
	for _, l := range d.Labels {
		if l.Visible && l.Text != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// AnyPanelOpen reports whether one of the given panels is visible.
func (d Data) AnyPanelOpen(panels []string) bool {
	for _, p := range panels {
		if d.OpenPanels[p] {
			return true
		}
	}
	return false
}

func HasBuff(buffs []string, names []string) bool {
	for _, b := range buffs {
		for _, n := range names {
			if strings.EqualFold(b, n) {
				return true
			}
		}
	}
	return false
}
