package service

import (
	"errors"
	"fmt"
	"time"

	"collabnote-server/internal/domain"
	"collabnote-server/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (s *UserService) GetByID(id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	user.Password = ""
	return user, nil
}

func (s *UserService) UpdateUsername(userID, newUsername string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	oldUsername := user.Username
	user.Username = newUsername
	user.UpdatedAt = time.Now()

	// The repository moves the username reservation, so a concurrent
	// claim of the same name loses at write time.
	if err := s.userRepo.ChangeUsername(user, oldUsername); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, fmt.Errorf("username already taken")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Password = ""
	return user, nil
}
