package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 12

type BudgetRange struct {
	Min      float64 `bson:"min" json:"min" validate:"gte=0"`
	Max      float64 `bson:"max" json:"max" validate:"omitempty,gtefield=Min"`
	Currency string  `bson:"currency,omitempty" json:"currency,omitempty" validate:"omitempty,len=3"`
}

type Preferences struct {
	Interests   []string    `bson:"interests" json:"interests" validate:"max=20,dive,min=1,max=50"`
	BudgetRange BudgetRange `bson:"budget_range" json:"budget_range"`
	TravelStyle string      `bson:"travel_style,omitempty" json:"travel_style,omitempty" validate:"omitempty,oneof=budget mid-range luxury adventure relaxation cultural"`
}

type UserStats struct {
	TripsCompleted int `bson:"trips_completed" json:"trips_completed"`
	ReviewsCount   int `bson:"reviews_count" json:"reviews_count"`
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" validate:"required,min=2,max=50"`
	Email       string             `bson:"email" json:"email" validate:"required,email"`
	Password    string             `bson:"password" json:"-"`
	Avatar      string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio         string             `bson:"bio,omitempty" json:"bio,omitempty" validate:"max=500"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty" validate:"max=100"`
	Role        Role               `bson:"role" json:"role" validate:"required,oneof=user admin"`
	Preferences Preferences        `bson:"preferences" json:"preferences"`
	Stats       UserStats          `bson:"stats" json:"stats"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	LastLogin   *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// SetPassword hashes and stores a new password. Callers only invoke it when
// the password actually changed, so an existing hash is never re-hashed.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// Deactivate soft-deletes the account: it stays in the store but can no
// longer sign in and its email is released.
func (u *User) Deactivate(now time.Time) {
	u.IsActive = false
	u.Email = fmt.Sprintf("deleted_%s@deleted.local", u.ID.Hex())
	u.UpdatedAt = now
}

func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role}
}

func (u *User) Validate() error {
	return validateStruct(u).Err()
}

// ProfilePatch carries the fields a user may edit on their own profile.
type ProfilePatch struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Location *string `json:"location"`
	Avatar   *string `json:"avatar"`
}

func (u *User) Apply(p ProfilePatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
}
