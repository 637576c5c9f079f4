// Package sqlbuilder composes parameterized SQL for the database layer.
//
// A Builder turns rows of domain values into statements: Literal values
// become placeholders with their value appended to the argument list,
// RawExpr values are written into the SQL text and consume no argument.
// Timestamp columns known to the schema are filled with NOW() when the
// caller leaves them out.
//
// Statements use one of two binding styles. Positional statements carry
// "?" placeholders and an ordered argument list. Named statements carry
// ":name" placeholders and a Params map; Bind rewrites them to positional
// form because the MySQL driver has no named binding.
//
// Every generated statement is checked before it is returned: the number
// of placeholders must equal the number of arguments.
package sqlbuilder
