package models

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
)

const (
	msgShortcutFields    = "Please fill in both fields."
	msgDuplicateShortcut = "Shortcut already exists. Please use a different shortcut key."
	msgShortcutNotFound  = "Shortcut not found."

	minShortcutExpandLen = 2
)

// Shortcut expands a short typed token into a full line-item description.
type Shortcut struct {
	ID          string `json:"id,omitempty"`
	Shortcut    string `json:"shortcut"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

type NewShortcut struct {
	Shortcut    string `json:"shortcut" validate:"required"`
	Description string `json:"description" validate:"required"`
}

var shortcutMessages = map[string]string{
	"Shortcut":    msgShortcutFields,
	"Description": msgShortcutFields,
}

type ShortcutService struct {
	deps *Deps
	bin  *RecycleBin
}

func (s *ShortcutService) shortcuts() store.Collection {
	return s.deps.collection(CollectionShortcuts)
}

func (s *ShortcutService) findByToken(ctx context.Context, token string) (*Shortcut, error) {
	recs, err := s.shortcuts().Query(ctx, store.Query{
		Filters: []store.Filter{store.Eq("shortcut", token)},
		Limit:   1,
	})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	sc, err := fromRecord[Shortcut](recs[0])
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *ShortcutService) Get(ctx context.Context, id string) (*Shortcut, error) {
	rec, ok, err := s.shortcuts().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &utils.NotFoundError{Entity: "shortcut", Key: id, Message: msgShortcutNotFound}
	}
	sc, err := fromRecord[Shortcut](rec)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// Save adds a shortcut, or updates shortcut id when id is not empty.
// Tokens are unique and case-sensitive.
func (s *ShortcutService) Save(ctx context.Context, input NewShortcut, id string) (*Shortcut, error) {
	input.Shortcut = strings.TrimSpace(input.Shortcut)
	input.Description = strings.TrimSpace(input.Description)
	if err := utils.ValidateStruct(input, shortcutMessages); err != nil {
		return nil, err
	}

	var saved *Shortcut
	err := s.deps.withLock(ctx, "shortcut:"+input.Shortcut, func() error {
		existing, err := s.findByToken(ctx, input.Shortcut)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != id {
			return &utils.DuplicateError{Entity: "shortcut", Key: input.Shortcut, Message: msgDuplicateShortcut}
		}
		rec := store.Record{"shortcut": input.Shortcut, "description": input.Description}
		if id != "" {
			if _, err := s.Get(ctx, id); err != nil {
				return err
			}
			if err := s.shortcuts().Update(ctx, id, rec); err != nil {
				return err
			}
		} else if id, err = s.shortcuts().Insert(ctx, rec); err != nil {
			return err
		}
		saved, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		config.LogError(s.deps.Logger, "ShortcutService", "Save", "save shortcut", input, err)
		return nil, err
	}
	return saved, nil
}

func (s *ShortcutService) List(ctx context.Context) ([]Shortcut, error) {
	recs, err := s.shortcuts().Query(ctx, store.Query{OrderBy: store.FieldCreatedAt, Desc: true})
	if err != nil {
		config.LogError(s.deps.Logger, "ShortcutService", "List", "query shortcuts", nil, err)
		return nil, err
	}
	return fromRecords[Shortcut](recs)
}

// Expand returns the description for token when token is at least two
// characters long and names a shortcut exactly.
func (s *ShortcutService) Expand(ctx context.Context, token string) (string, bool, error) {
	token = strings.TrimSpace(token)
	if utf8.RuneCountInString(token) < minShortcutExpandLen {
		return "", false, nil
	}
	sc, err := s.findByToken(ctx, token)
	if err != nil {
		return "", false, err
	}
	if sc == nil {
		return "", false, nil
	}
	return sc.Description, true, nil
}

func (s *ShortcutService) Delete(ctx context.Context, id string) (*RecycleBinEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.bin.SoftDelete(ctx, EntityShortcut, id)
}
