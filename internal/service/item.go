// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses form submissions, writes responses
//	Service (business layer) → validates text, applies update rules
//	Repository (data layer)  → reads/writes the items table
//
// ItemService takes a repository.ItemRepository interface, not a concrete
// backend, so the same rules apply whether items live in SQLite, Postgres
// or memory. It has no knowledge of HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

// Operation outcomes reported to the OpRecorder.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
	outcomeDeleted  = "deleted"
	outcomeAbsent   = "absent"
)

// OpRecorder receives one call per service operation. metrics.Metrics
// implements it; nil disables recording.
type OpRecorder interface {
	ItemOp(op, outcome string)
}

// ItemService implements the item store contract on top of a repository.
type ItemService struct {
	repo     repository.ItemRepository
	recorder OpRecorder
	logger   *slog.Logger
}

// NewItemService creates a new ItemService. recorder may be nil.
func NewItemService(repo repository.ItemRepository, recorder OpRecorder, logger *slog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

// ListAll returns a snapshot of every item, newest first. An empty store
// yields an empty, non-nil slice.
func (s *ItemService) ListAll(ctx context.Context) ([]model.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list items", slog.String("error", err.Error()))
		s.record("list", outcomeError)
		return nil, fmt.Errorf("listing items: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	s.record("list", outcomeOK)
	return items, nil
}

// Create validates text and persists a new, incomplete item.
func (s *ItemService) Create(ctx context.Context, text string) (*model.Item, error) {
	text, err := validateText(text)
	if err != nil {
		s.record("create", outcomeInvalid)
		return nil, err
	}

	item := &model.Item{Text: text, Completed: false}
	if err := s.repo.Create(ctx, item); err != nil {
		s.logger.Error("failed to create item", slog.String("error", err.Error()))
		s.record("create", outcomeError)
		return nil, fmt.Errorf("creating item: %w", err)
	}

	s.logger.Info("item created", slog.String("id", item.ID))
	s.record("create", outcomeOK)
	return item, nil
}

// Update applies an edit submitted from the list page.
//
// markCompleted always overwrites the stored flag; it is never merged with
// the previous value. newText == nil leaves the text unchanged, otherwise it
// replaces the text after trimming; only the length bound applies, so a blank
// submission clears the text and still applies the completion flag.
func (s *ItemService) Update(ctx context.Context, id string, newText *string, markCompleted bool) (*model.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		s.record("update", outcomeInvalid)
		return nil, apperror.ValidationFailed("id", "item id is required")
	}

	var text string
	if newText != nil {
		text = strings.TrimSpace(*newText)
		if err := validateLength(text); err != nil {
			s.record("update", outcomeInvalid)
			return nil, err
		}
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.updateFailed(id, err)
	}

	if newText != nil {
		item.Text = text
	}
	item.Completed = markCompleted

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, s.updateFailed(id, err)
	}

	s.logger.Info("item updated",
		slog.String("id", item.ID),
		slog.Bool("completed", item.Completed),
		slog.Bool("textChanged", newText != nil),
	)
	s.record("update", outcomeOK)
	return item, nil
}

// updateFailed classifies a repository error. NotFound is returned as-is
// and not logged; anything else is logged and wrapped.
func (s *ItemService) updateFailed(id string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		s.record("update", outcomeNotFound)
		return err
	}
	s.logger.Error("failed to update item", slog.String("id", id), slog.String("error", err.Error()))
	s.record("update", outcomeError)
	return fmt.Errorf("updating item: %w", err)
}

// Delete removes the item with id. It succeeds whether or not the item
// existed; only storage failures are returned.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		s.record("delete", outcomeAbsent)
		return nil
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete item", slog.String("id", id), slog.String("error", err.Error()))
		s.record("delete", outcomeError)
		return fmt.Errorf("deleting item: %w", err)
	}

	if removed {
		s.logger.Info("item deleted", slog.String("id", id))
		s.record("delete", outcomeDeleted)
	} else {
		s.logger.Debug("delete of unknown item ignored", slog.String("id", id))
		s.record("delete", outcomeAbsent)
	}
	return nil
}

func (s *ItemService) record(op, outcome string) {
	if s.recorder != nil {
		s.recorder.ItemOp(op, outcome)
	}
}

// validateText trims surrounding whitespace and enforces the required and
// length rules. Length is measured in characters, not bytes.
func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed("text", "item text is required")
	}
	if err := validateLength(text); err != nil {
		return "", err
	}
	return text, nil
}

func validateLength(text string) error {
	if utf8.RuneCountInString(text) > model.MaxTextLength {
		return apperror.ValidationFailed("text",
			fmt.Sprintf("item text must be %d characters or less", model.MaxTextLength))
	}
	return nil
}
