package progress

import (
	"fmt"
	"strings"
)

// Status is the traffic-light learning state of one leaf for one student.
type Status string

const (
	StatusBlack Status = "BLACK"
	StatusRed   Status = "RED"
	StatusBlue  Status = "BLUE"
	StatusGreen Status = "GREEN"
)

// DefaultStatus applies to any leaf without a stored progress row.
const DefaultStatus = StatusBlack

var statusLabels = map[Status]string{
	StatusBlack: "미학습",
	StatusRed:   "SOS",
	StatusBlue:  "연습",
	StatusGreen: "마스터",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the display name shown on the board.
func (s Status) Label() string { return statusLabels[s] }

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}
