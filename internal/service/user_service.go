package service

import (
	"context"
	"strings"
	"time"

	apperrors "habittracker/backend/internal/errors"
	"habittracker/backend/internal/logger"
	"habittracker/backend/internal/model"
	"habittracker/backend/internal/repository"
)

type UserService struct {
	repo *repository.UserRepository
}

// UpdateUserInput carries a partial profile update; nil fields are unchanged.
type UpdateUserInput struct {
	Email          *string
	Password       *string
	Phone          *string
	City           *string
	TelegramChatID *string
}

type UserPage struct {
	Count    int          `json:"count"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Results  []model.User `json:"results"`
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context, page Page) (*UserPage, *apperrors.APIError) {
	page = page.Normalize()

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to count users")
	}
	users, err := s.repo.List(ctx, page.Size, page.Offset())
	if err != nil {
		return nil, apperrors.Internal("failed to list users")
	}

	return &UserPage{
		Count:    count,
		Page:     page.Number,
		PageSize: page.Size,
		Results:  users,
	}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, *apperrors.APIError) {
	user, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get user")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actorID, id string, input UpdateUserInput) (*model.User, *apperrors.APIError) {
	if actorID != id {
		return nil, apperrors.Forbidden("you can only update your own profile")
	}

	user, apiErr := s.Get(ctx, id)
	if apiErr != nil {
		return nil, apiErr
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperrors.BadRequest("invalid_email", "email is not valid")
		}
		user.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperrors.BadRequest("invalid_password", "password must be at least 6 characters")
		}
		hash, apiErr := hashPassword(*input.Password)
		if apiErr != nil {
			return nil, apiErr
		}
		user.PasswordHash = hash
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.City != nil {
		user.City = input.City
	}
	if input.TelegramChatID != nil {
		user.TelegramChatID = strings.TrimSpace(*input.TelegramChatID)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("email_exists", "email already registered", nil)
		}
		return nil, apperrors.Internal("failed to update user")
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actorID, id string) *apperrors.APIError {
	if actorID != id {
		return apperrors.Forbidden("you can only delete your own account")
	}

	err := s.repo.Delete(ctx, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete user")
	}
	logger.Info("user deleted", "user_id", id)
	return nil
}
