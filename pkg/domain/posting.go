package domain

import (
	"strconv"
	"strings"
)

// Posting field names, shared by validation messages and form labels.
const (
	FieldTotalPositions = "numeroTotalPuestos"
	FieldZone           = "zona"
	FieldDescription    = "descripcion"
)

// Posting is a job/position listing persisted by the backend.
type Posting struct {
	ID             ID     `json:"id"`
	TotalPositions int    `json:"numeroTotalPuestos"`
	Zone           string `json:"zona"`
	Description    string `json:"descripcion,omitempty"`
	Owner          *User  `json:"usuario,omitempty"`
}

// PostingDraft is the transient form state of a posting being created or edited.
type PostingDraft struct {
	TotalPositions int
	Zone           string
	Description    string
}

// DraftFromPosting seeds a draft with the current values of p.
func DraftFromPosting(p Posting) PostingDraft {
	return PostingDraft{
		TotalPositions: p.TotalPositions,
		Zone:           p.Zone,
		Description:    p.Description,
	}
}

// Validate checks a draft that is ready to submit.
func (d PostingDraft) Validate() FieldErrors {
	errs := FieldErrors{}
	if d.TotalPositions < 0 {
		errs[FieldTotalPositions] = "El número total de puestos debe ser un entero mayor o igual a 0"
	}
	if strings.TrimSpace(d.Zone) == "" {
		errs[FieldZone] = "La zona es requerida"
	}
	return errs
}

// ParsePostingDraft builds a draft from raw form text.
// Total positions must parse as an integer >= 0 and zone must be non-empty.
func ParsePostingDraft(totalPositions, zone, description string) (PostingDraft, FieldErrors) {
	d := PostingDraft{
		Zone:        strings.TrimSpace(zone),
		Description: strings.TrimSpace(description),
	}
	errs := FieldErrors{}
	n, err := strconv.Atoi(strings.TrimSpace(totalPositions))
	if err != nil {
		errs[FieldTotalPositions] = "El número total de puestos debe ser un entero"
	} else {
		d.TotalPositions = n
	}
	for f, msg := range d.Validate() {
		if _, ok := errs[f]; !ok {
			errs[f] = msg
		}
	}
	return d, errs
}
