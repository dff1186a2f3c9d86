// Package notifications registers device push tokens and fans notifications
// out to them in batches.
package notifications

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/push"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultBatchSize   = 500
	defaultSendTimeout = 30 * time.Second
)

// Service defines push token registration and delivery.
type Service interface {
	RegisterToken(ctx context.Context, userID, token string) error
	NotifyAll(ctx context.Context, title, body string) (*DeliveryResult, error)
	NotifyUser(ctx context.Context, userID, title, body string) (*DeliveryResult, error)
}

// DeliveryResult counts tokens reached and tokens that failed.
type DeliveryResult struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// tokenStore is the user persistence used for push tokens.
type tokenStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListWithTokens(ctx context.Context) ([]models.User, error)
	SetPushTokens(ctx context.Context, id string, tokens []string) error
}

// ServiceParams groups dependencies for the notification service.
type ServiceParams struct {
	Users       tokenStore
	Sender      push.Sender
	BatchSize   int
	SendTimeout time.Duration
	Metrics     *metrics.CatalogMetrics
	Logger      *logger.Logger
}

type service struct {
	users       tokenStore
	sender      push.Sender
	batchSize   int
	sendTimeout time.Duration
	metrics     *metrics.CatalogMetrics
	logg        *logger.Logger
}

// NewService wires notification dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user token store required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "push sender required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	sendTimeout := params.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &service{
		users:       params.Users,
		sender:      params.Sender,
		batchSize:   batchSize,
		sendTimeout: sendTimeout,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// RegisterToken appends token to the user's devices unless already present.
func (s *service) RegisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if strings.TrimSpace(userID) == "" || token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and token are required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if slices.Contains(user.PushTokens, token) {
		return nil
	}
	tokens := append([]string{}, user.PushTokens...)
	if err := s.users.SetPushTokens(ctx, userID, append(tokens, token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store push token")
	}
	return nil
}

// NotifyAll sends to every registered device.
func (s *service) NotifyAll(ctx context.Context, title, body string) (*DeliveryResult, error) {
	users, err := s.users.ListWithTokens(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list push tokens")
	}
	return s.deliver(ctx, users, push.Message{Title: title, Body: body})
}

// NotifyUser sends to one user's devices. A user without tokens is not an error.
func (s *service) NotifyUser(ctx context.Context, userID, title, body string) (*DeliveryResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return s.deliver(ctx, []models.User{*user}, push.Message{Title: title, Body: body})
}

// deliver sends msg to the users' distinct tokens in batches and prunes
// tokens the sender reports invalid. A failing batch is counted and the
// remaining batches still go out.
func (s *service) deliver(ctx context.Context, users []models.User, msg push.Message) (*DeliveryResult, error) {
	owners := map[string][]string{}
	tokens := make([]string, 0)
	for _, u := range users {
		for _, t := range u.PushTokens {
			if _, seen := owners[t]; !seen {
				tokens = append(tokens, t)
			}
			owners[t] = append(owners[t], u.ID)
		}
	}

	var (
		total   push.Result
		sendErr error
	)
	for start := 0; start < len(tokens); start += s.batchSize {
		end := min(start+s.batchSize, len(tokens))
		batchCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		res, err := s.sender.SendToTokens(batchCtx, tokens[start:end], msg)
		cancel()
		if err != nil {
			sendErr = multierr.Append(sendErr, err)
			if res.SuccessCount+res.FailureCount == 0 {
				res.FailureCount = end - start
			}
		}
		total.Merge(res)
	}

	s.metrics.AddPushes(total.SuccessCount, total.FailureCount)
	s.prune(ctx, users, owners, total.InvalidTokens)
	if sendErr != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "failures", total.FailureCount), "push delivery incomplete", sendErr)
	}
	return &DeliveryResult{SuccessCount: total.SuccessCount, FailureCount: total.FailureCount}, nil
}

// prune drops invalid tokens from their owners; failures are only logged.
func (s *service) prune(ctx context.Context, users []models.User, owners map[string][]string, invalid []string) {
	if len(invalid) == 0 {
		return
	}
	drop := make(map[string][]string)
	for _, t := range invalid {
		for _, userID := range owners[t] {
			drop[userID] = append(drop[userID], t)
		}
	}
	for _, u := range users {
		bad, ok := drop[u.ID]
		if !ok {
			continue
		}
		kept := make([]string, 0, len(u.PushTokens))
		for _, t := range u.PushTokens {
			if !slices.Contains(bad, t) {
				kept = append(kept, t)
			}
		}
		if err := s.users.SetPushTokens(ctx, u.ID, kept); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"user_id": u.ID, "error": err.Error()}), "prune push tokens failed")
		}
	}
}
