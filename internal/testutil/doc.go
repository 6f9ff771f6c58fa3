// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing platform events and call sessions and
// when asserting which platform requests were issued. They are not intended
// for production usage.
package testutil
