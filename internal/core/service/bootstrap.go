package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
	"github.com/mmp/docrepo/internal/pkg/metrics"
)

// DefaultAdminPassword is the initial password of the bootstrap admin when
// none is configured.
const DefaultAdminPassword = "adminSecret"

// Bootstrap seeds a fresh installation: a default admin when there are no
// users, a demonstration document when there are no documents, and a
// demonstration structure when there are no structures. Each step looks only
// at its own collection, so running it against a populated store changes
// nothing.
func (r *Repository) Bootstrap(ctx context.Context) error {
	admin, err := r.seedAdmin(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap users: %w", err)
	}
	if err := r.seedDocument(ctx, admin); err != nil {
		return fmt.Errorf("bootstrap documents: %w", err)
	}
	if err := r.seedStructure(ctx); err != nil {
		return fmt.Errorf("bootstrap structures: %w", err)
	}
	return nil
}

// seedAdmin returns the admin it created, or nil when users already existed.
func (r *Repository) seedAdmin(ctx context.Context) (*domain.User, error) {
	n, err := r.users.Count(ctx, ports.UserFilter{})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}

	password := r.opts.AdminPassword
	if password == "" {
		password = DefaultAdminPassword
	}
	hash, err := r.hashPassword(password)
	if err != nil {
		return nil, err
	}

	admin, err := r.users.Insert(ctx, &domain.User{
		Name:         r.opts.AdminName,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if errors.Is(err, domain.ErrDuplicateKey) {
		// Another instance seeded concurrently.
		return r.GetUserByName(ctx, r.opts.AdminName)
	}
	if err != nil {
		return nil, err
	}

	metrics.BootstrapSeededTotal.WithLabelValues("users").Inc()
	r.log.Info().Str("user_id", admin.ID).Str("name", admin.Name).Msg("created default admin account")
	return admin, nil
}

func (r *Repository) seedDocument(ctx context.Context, admin *domain.User) error {
	n, err := r.documents.Count(ctx, ports.DocumentFilter{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if admin == nil {
		admin, err = r.GetUserByName(ctx, r.opts.AdminName)
		if isNotFound(err) {
			r.log.Warn().Str("name", r.opts.AdminName).Msg("no default admin to own the demonstration document, skipping")
			return nil
		}
		if err != nil {
			return err
		}
	}

	content, _ := json.Marshal(map[string]any{
		"text": "This document was created when the repository started for the first time.",
	})
	doc, err := r.documents.Insert(ctx, &domain.Document{
		Owner:       admin.ID,
		Title:       "Welcome",
		Description: "Demonstration document",
		Type:        0,
		SubType:     0,
		Content:     content,
	})
	if err != nil {
		return err
	}

	metrics.BootstrapSeededTotal.WithLabelValues("documents").Inc()
	r.log.Info().Str("document_id", doc.ID).Str("owner", doc.Owner).Msg("created demonstration document")
	return nil
}

func (r *Repository) seedStructure(ctx context.Context) error {
	n, err := r.structures.Count(ctx, ports.StructureFilter{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	s, err := r.structures.Insert(ctx, &domain.Structure{
		Name:        "Note",
		Description: "Demonstration structure for a simple note",
		Fields: []domain.FieldDescriptor{
			{Name: "title", Type: "string"},
			{Name: "body", Type: "text"},
			{Name: "tags", Type: "array"},
		},
	})
	if errors.Is(err, domain.ErrDuplicateKey) {
		return nil
	}
	if err != nil {
		return err
	}

	metrics.BootstrapSeededTotal.WithLabelValues("structures").Inc()
	r.log.Info().Str("structure_id", s.ID).Str("name", s.Name).Msg("created demonstration structure")
	return nil
}
