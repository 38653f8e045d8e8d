package authkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Register creates an account and returns an immediately usable access
// token. Username and email must both be unused; the checks are ordered so a
// request that collides on both reports the username conflict.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if e.isClosed() {
		return nil, ErrEngineClosed
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" {
		return nil, fmt.Errorf("username and email are required")
	}

	exists, err := e.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}
	if exists {
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, ActionRegister, false, &UserRecord{Username: username}, "username conflict", ErrUsernameExists)
		return nil, ErrUsernameExists
	}

	exists, err = e.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}
	if exists {
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, ActionRegister, false, &UserRecord{Username: username}, "email conflict", ErrEmailExists)
		return nil, ErrEmailExists
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &UserRecord{
		UserID:       uuid.NewString(),
		Fullname:     strings.TrimSpace(req.Fullname),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         e.config.Security.DefaultRole,
		Enabled:      true,
		CreatedAt:    e.now(),
	}

	saved, err := e.users.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}

	token, err := e.tokens.Issue(saved.Username, saved.UserID, saved.Email, saved.Role)
	if err != nil {
		return nil, err
	}

	e.enqueueWelcomeMail(saved.Email, saved.Username)
	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, ActionRegister, true, saved, "", nil)

	return &AuthResult{
		Token:    token,
		UserID:   saved.UserID,
		Username: saved.Username,
		Email:    saved.Email,
		Role:     saved.Role,
		Message:  "User registered successfully!",
	}, nil
}
