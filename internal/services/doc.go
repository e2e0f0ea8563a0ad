// Package services holds cross-stage helpers shared by the pipeline stages,
// currently the error taxonomy used to classify run failures.
package services
