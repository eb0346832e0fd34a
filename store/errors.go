package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"stockctl/domain"
)

// translate maps a gorm/driver error into the domain error kinds. Domain errors
// pass through unchanged; anything unrecognized becomes a StorageError.
func translate(op, sku string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsDomainError(err) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewProductNotFoundError(sku)
	case isUniqueViolation(err):
		return domain.NewConstraintViolationError("sku", sku)
	case isForeignKeyViolation(err):
		return domain.NewReferentialConflictError(sku)
	}
	return domain.NewStorageError(op, err)
}

// isUniqueViolation reports whether err is a unique or primary key violation.
// gorm's TranslateError covers both dialects; the sqlite3 check catches
// errors raised outside gorm's callbacks (raw Exec).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
