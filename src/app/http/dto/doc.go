// Package dto contains Data Transfer Objects for HTTP requests and responses.
//
// DTOs are separate from domain entities to:
//   - Control what data is exposed in the API
//   - Handle JSON serialization
//   - Bind and validate query strings
//
// Naming convention:
//   - Request types: <Action><Resource>Request (e.g., CountRowsRequest)
//   - Response types: <Resource>Response (e.g., ColumnResponse)
package dto
