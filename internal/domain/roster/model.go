package roster

import "strings"

type Player struct {
	ID       string
	TeamID   string
	Name     string
	Number   int
	Position string
}

func (p Player) DisplayName() string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return p.ID
	}
	return name
}
