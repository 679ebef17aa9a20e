package handler

import (
	"encoding/json"
	"time"

	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

// userLogin
type loginRequest struct {
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
}

// --- Users ---

// userCreation
type userCreationRequest struct {
	Name     string `json:"name"     validate:"required,notblank,max=128"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Email    string `json:"email"    validate:"omitempty,email"`
	IsAdmin  bool   `json:"isAdmin"`
}

// userUpdate
type userUpdateRequest struct {
	Name     *string `json:"name"     validate:"omitempty,notblank,max=128"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	IsAdmin  *bool   `json:"isAdmin"`
}

// --- Documents ---

// documentCreation
type documentCreationRequest struct {
	Title       string          `json:"title"       validate:"required,notblank,max=256"`
	Description string          `json:"description" validate:"max=4096"`
	Type        int             `json:"type"        validate:"gte=0"`
	SubType     int             `json:"subType"     validate:"gte=0"`
	Content     json.RawMessage `json:"content"`
}

// documentUpdate. Owner is accepted so the request can be refused with a
// precise error instead of being silently ignored.
type documentUpdateRequest struct {
	Title       *string         `json:"title"       validate:"omitempty,notblank,max=256"`
	Description *string         `json:"description" validate:"omitempty,max=4096"`
	Type        *int            `json:"type"        validate:"omitempty,gte=0"`
	SubType     *int            `json:"subType"     validate:"omitempty,gte=0"`
	Content     json.RawMessage `json:"content"`
	// Owner is kept raw so that an explicit null still counts as an attempt
	// to change it.
	Owner json.RawMessage `json:"owner" swaggertype:"string"`
}

// --- Structures ---

type fieldRequest struct {
	Name string `json:"name" validate:"required,notblank"`
	Type string `json:"type" validate:"required"`
}

// structureCreation
type structureCreationRequest struct {
	Name        string          `json:"name"        validate:"required,notblank,max=128"`
	Description string          `json:"description" validate:"max=4096"`
	Reference   json.RawMessage `json:"reference"`
	Fields      []fieldRequest  `json:"fields"      validate:"dive"`
}

// structureUpdate
type structureUpdateRequest struct {
	Name        *string         `json:"name"        validate:"omitempty,notblank,max=128"`
	Description *string         `json:"description" validate:"omitempty,max=4096"`
	Reference   json.RawMessage `json:"reference"`
	Fields      []fieldRequest  `json:"fields"      validate:"omitempty,dive"`
}

// --- Audit ---

type auditEventResponse struct {
	ID       string    `json:"id"`
	ActorID  string    `json:"actorId"`
	Action   string    `json:"action"`
	Kind     string    `json:"kind"`
	TargetID string    `json:"targetId,omitempty"`
	Outcome  string    `json:"outcome"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// --- Request → Service input ---

func toCreateUserInput(req userCreationRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		Name:     req.Name,
		Password: req.Password,
		Email:    req.Email,
		IsAdmin:  req.IsAdmin,
	}
}

func toUpdateUserInput(req userUpdateRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Name:     req.Name,
		Password: req.Password,
		Email:    req.Email,
		IsAdmin:  req.IsAdmin,
	}
}

func toCreateDocumentInput(req documentCreationRequest) ports.CreateDocumentInput {
	return ports.CreateDocumentInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		SubType:     req.SubType,
		Content:     nullAsAbsent(req.Content),
	}
}

func toUpdateDocumentInput(req documentUpdateRequest) ports.UpdateDocumentInput {
	return ports.UpdateDocumentInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		SubType:     req.SubType,
		Content:     nullAsAbsent(req.Content),
		Owner:       presentOwner(req.Owner),
	}
}

func toFields(reqs []fieldRequest) []domain.FieldDescriptor {
	if reqs == nil {
		return nil
	}
	fields := make([]domain.FieldDescriptor, 0, len(reqs))
	for _, f := range reqs {
		fields = append(fields, domain.FieldDescriptor{Name: f.Name, Type: f.Type})
	}
	return fields
}

func toCreateStructureInput(req structureCreationRequest) ports.CreateStructureInput {
	return ports.CreateStructureInput{
		Name:        req.Name,
		Description: req.Description,
		Reference:   nullAsAbsent(req.Reference),
		Fields:      toFields(req.Fields),
	}
}

func toUpdateStructureInput(req structureUpdateRequest) ports.UpdateStructureInput {
	return ports.UpdateStructureInput{
		Name:        req.Name,
		Description: req.Description,
		Reference:   nullAsAbsent(req.Reference),
		Fields:      toFields(req.Fields),
	}
}

func toAuditEventResponses(events []*domain.AuditEvent) []auditEventResponse {
	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			ID:       e.ID,
			ActorID:  e.ActorID,
			Action:   e.Action,
			Kind:     e.Kind,
			TargetID: e.TargetID,
			Outcome:  e.Outcome,
			Reason:   e.Reason,
			At:       e.At,
		})
	}
	return out
}

// nullAsAbsent treats an explicit JSON null like a missing field.
// presentOwner returns nil only when the owner key was absent from the body.
func presentOwner(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	var owner string
	if err := json.Unmarshal(raw, &owner); err != nil {
		owner = string(raw)
	}
	return &owner
}

func nullAsAbsent(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}
