package access

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service は利用者 ID から Principal を解決します。
// 解決結果は Cache に保持され、サインアウトまたは強制再取得で破棄されます。
type Service struct {
	repo   ProfileRepository
	cache  Cache
	clock  Clock
	logger logrus.FieldLogger
	group  singleflight.Group
}

// NewService は Service を生成します。cache が nil の場合は毎回ストアを参照します。
func NewService(repo ProfileRepository, cache Cache, clock Clock, logger logrus.FieldLogger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{repo: repo, cache: cache, clock: clock, logger: logger}
}

// ResolveInput は Principal 解決時の入力です。
type ResolveInput struct {
	Subject      string
	ForceRefresh bool
}

// Resolve は利用者の Principal を返します。プロファイルが無ければ非管理者として作成します。
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (Principal, error) {
	subject, err := normalizeSubject(in.Subject)
	if err != nil {
		return Principal{}, err
	}

	if in.ForceRefresh {
		s.evict(ctx, subject)
	} else if cached := s.fromCache(ctx, subject); cached != nil {
		return PrincipalFromProfile(cached), nil
	}

	v, err, _ := s.group.Do(subject, func() (any, error) {
		return s.load(ctx, subject)
	})
	if err != nil {
		return Principal{}, err
	}
	return PrincipalFromProfile(v.(*Profile)), nil
}

// Invalidate はサインアウト時にキャッシュを破棄します。
func (s *Service) Invalidate(ctx context.Context, subject string) error {
	normalized, err := normalizeSubject(subject)
	if err != nil {
		return err
	}
	s.group.Forget(normalized)
	s.evict(ctx, normalized)
	return nil
}

func (s *Service) load(ctx context.Context, subject string) (*Profile, error) {
	profile, err := s.repo.FindByID(ctx, subject)
	if errors.Is(err, ErrProfileNotFound) {
		profile, err = s.repo.Create(ctx, &Profile{ID: subject, CreatedAt: s.clock.Now()})
		if err == nil {
			s.logger.WithField("subject", subject).Info("profile created")
		}
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, profile); cacheErr != nil {
			s.logger.WithError(cacheErr).WithField("subject", subject).Warn("profile cache write failed")
		}
	}
	return profile, nil
}

func (s *Service) fromCache(ctx context.Context, subject string) *Profile {
	if s.cache == nil {
		return nil
	}
	profile, err := s.cache.Get(ctx, subject)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WithError(err).WithField("subject", subject).Warn("profile cache read failed")
		}
		return nil
	}
	return profile
}

func (s *Service) evict(ctx context.Context, subject string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, subject); err != nil {
		s.logger.WithError(err).WithField("subject", subject).Warn("profile cache delete failed")
	}
}

func normalizeSubject(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", ErrInvalidSubject
	}
	return strings.ToLower(trimmed), nil
}
