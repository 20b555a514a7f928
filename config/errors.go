package config

import apperrors "github.com/target/quizgate/internal/errors"

func configErr(field, message string) error {
	return apperrors.Configuration(field, message)
}
