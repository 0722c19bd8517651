// Package services holds cross-cutting helpers shared by the reconciliation
// services: the error taxonomy used for classification at the API boundary and
// context carriage for request-scoped fields.
package services
