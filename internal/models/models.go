// package models defines the data model for the ILAS client
package models

// User represents the authenticated account profile returned by the backend.
// The auth layer stores and forwards it verbatim; extra fields the backend
// adds over time are ignored rather than rejected.
type User struct {
	ID         int    `json:"id"`
	FirstName  string `json:"first_name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
	UniqueID   string `json:"unique_id"`
	Department string `json:"department"`
	Year       string `json:"year"`
}

// Credentials is the payload for the login endpoint. The backend accepts a
// username or an email in the username field.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupPayload is the payload for the registration endpoint.
type SignupPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Book represents a library book row.
type Book struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	Category string `json:"category"`
	Copies   int    `json:"copies"`
	Status   string `json:"status"`
}

// Member represents a library member row.
type Member struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UniqueID string `json:"unique_id"`
	Status   string `json:"status"`
}

// Transaction represents a borrow/return transaction row.
type Transaction struct {
	ID         int    `json:"id"`
	BookTitle  string `json:"book_title"`
	MemberName string `json:"member_name"`
	TxnType    string `json:"txn_type"`
	IssuedAt   string `json:"issued_at"`
	DueDate    string `json:"due_date"`
	ReturnedAt string `json:"returned_at"`
	Status     string `json:"status"`
}

// Page is the backend's paginated response envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
