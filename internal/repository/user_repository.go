package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"collabnote-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// ErrUserNotFound is returned by the Find methods when no user matches.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken and ErrUsernameTaken are returned by Create when another
// user already holds the email or username.
var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserRepository interface {
	Create(user *domain.User) error
	FindByEmail(email string) (*domain.User, error)
	FindByID(id string) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	Update(user *domain.User) error
	ChangeUsername(user *domain.User, oldUsername string) error
	EmailExists(email string) (bool, error)
	UsernameExists(username string) (bool, error)
}

type userRepository struct {
	client *kivik.Client
	dbName string
}

func NewUserRepository(client *kivik.Client, dbName string) UserRepository {
	return &userRepository{
		client: client,
		dbName: dbName,
	}
}

// Create stores the user after claiming reservation docs for the email
// and username. CouchDB has no unique constraint beyond the document ID,
// so the doc IDs email:<email> and username:<username> are the
// constraint: a 409 on either Put means the value is taken.
func (r *userRepository) Create(user *domain.User) error {
	db := r.client.DB(r.dbName)
	ctx := context.Background()

	reservation := map[string]string{"user_id": user.ID}

	emailDocID := fmt.Sprintf("email:%s", user.Email)
	if _, err := db.Put(ctx, emailDocID, reservation); err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to reserve email: %w", err)
	}

	usernameDocID := fmt.Sprintf("username:%s", user.Username)
	if _, err := db.Put(ctx, usernameDocID, reservation); err != nil {
		r.releaseReservation(ctx, emailDocID)
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to reserve username: %w", err)
	}

	docID := fmt.Sprintf("user:%s", user.ID)
	if _, err := db.Put(ctx, docID, user); err != nil {
		r.releaseReservation(ctx, emailDocID)
		r.releaseReservation(ctx, usernameDocID)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// releaseReservation is best-effort cleanup after a partial Create. A
// leaked reservation keeps the value claimed but never corrupts data.
func (r *userRepository) releaseReservation(ctx context.Context, docID string) {
	db := r.client.DB(r.dbName)

	row := db.Get(ctx, docID)
	rev, err := row.Rev()
	if err != nil {
		log.Printf("could not fetch reservation %s for cleanup: %v", docID, err)
		return
	}

	if _, err := db.Delete(ctx, docID, rev); err != nil {
		log.Printf("could not release reservation %s: %v", docID, err)
	}
}

func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	return r.findOne(map[string]interface{}{"email": email})
}

func (r *userRepository) FindByUsername(username string) (*domain.User, error) {
	return r.findOne(map[string]interface{}{"username": username})
}

func (r *userRepository) findOne(selector map[string]interface{}) (*domain.User, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": selector,
		"limit":    1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrUserNotFound
	}

	var user domain.User
	if err := rows.ScanDoc(&user); err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) FindByID(id string) (*domain.User, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("user:%s", id)
	row := db.Get(context.Background(), docID)

	var user domain.User
	if err := row.ScanDoc(&user); err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Update(user *domain.User) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("user:%s", user.ID)
	_, err := db.Put(context.Background(), docID, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// ChangeUsername writes the renamed user doc after moving the username
// reservation. user already carries the new username; oldUsername names
// the reservation to release once the rename is committed.
func (r *userRepository) ChangeUsername(user *domain.User, oldUsername string) error {
	if user.Username == oldUsername {
		return r.Update(user)
	}

	db := r.client.DB(r.dbName)
	ctx := context.Background()

	newDocID := fmt.Sprintf("username:%s", user.Username)
	if _, err := db.Put(ctx, newDocID, map[string]string{"user_id": user.ID}); err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to reserve username: %w", err)
	}

	if err := r.Update(user); err != nil {
		r.releaseReservation(ctx, newDocID)
		return err
	}

	r.releaseReservation(ctx, fmt.Sprintf("username:%s", oldUsername))
	return nil
}

func (r *userRepository) EmailExists(email string) (bool, error) {
	_, err := r.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *userRepository) UsernameExists(username string) (bool, error) {
	_, err := r.FindByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
