package service

import (
	"context"

	"auth-service/internal/model"
)

// UserLister extends the credential store with the listing query the public
// user endpoints need.
type UserLister interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	List(ctx context.Context) ([]model.UserInfo, error)
}

// UserFindService serves the public user lookup endpoints. It only ever
// returns projections: the password hash stays inside the store.
type UserFindService struct {
	users UserLister
}

func NewUserFindService(users UserLister) *UserFindService {
	return &UserFindService{users: users}
}

func (s *UserFindService) FindByUsername(ctx context.Context, username string) (model.UserInfo, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return model.UserInfo{}, err
	}
	return user.Info(), nil
}

func (s *UserFindService) List(ctx context.Context) ([]model.UserInfo, error) {
	return s.users.List(ctx)
}
