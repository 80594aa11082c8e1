package model

import "time"

// Roles recognized by the API. They appear verbatim in JWT role claims
// and in the users.role column.
const (
	RoleStudent    = "Student"
	RoleTechnician = "Technician"
	RoleAdmin      = "Admin"
)

// User account statuses. Accounts are never hard-deleted; deactivation
// flips the status to Inactive and cancels the user's active reservations.
const (
	UserActive   = "Active"
	UserInactive = "Inactive"
)

// User represents a registered account. UserID is a sequential integer
// assigned at registration (max existing + 1) and is the identifier
// reservations reference; it is distinct from the storage ID.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – sequential public identifier (users.user_id, unique).
//  Email          – unique institutional e-mail, stored lower-case.
//  PasswordHash   – bcrypt hash, never serialized.
//  Fname, Lname   – given and family name.
//  Mname          – optional middle name.
//  Role           – Student, Technician or Admin.
//  Status         – Active or Inactive.
//  ProfilePicPath – optional path to an uploaded profile picture.
//  Description    – optional free-form profile text.
type User struct {
	ID             uint64    // users.id
	UserID         int64     // users.user_id
	Email          string    // users.email
	PasswordHash   string    // users.password_hash
	Fname          string    // users.fname
	Lname          string    // users.lname
	Mname          *string   // users.mname (nullable)
	Role           string    // users.role
	Status         string    // users.status
	ProfilePicPath *string   // users.profile_pic_path (nullable)
	Description    *string   // users.description (nullable)
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}
