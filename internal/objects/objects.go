// Package objects contains the wire objects shared by the API layer and biz.
// To avoid circular dependencies, we put them here. JSON tags use camel case.
package objects
