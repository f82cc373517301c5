// Package models defines domain entities exchanged with the ILAS backend.
//
// The package contains two categories of types:
//
// 1. Identity types consumed by the session layer:
//   - [User] : The authenticated account profile; the auth layer treats it as
//     an opaque pass-through and never inspects it beyond (de)serialization
//   - [Credentials] : Username/password pair submitted at login
//
// 2. Library resources returned by caller modules:
//   - [Book], [Member], [Transaction] : Row shapes for the portal's CRUD screens
//   - [Page] : The backend's paginated envelope (count/next/previous/results)
//
// No type in this package carries behavior; validation of library data is the
// backend's responsibility.
package models
