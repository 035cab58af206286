package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hmbass/CoinButler/internal/domain"
)

func TestFailureClassification(t *testing.T) {
	transient := domain.Transient("upbit.GetPrice", errors.New("status 503"))
	permanent := domain.Permanent("upbit.GetPrice", errors.New("status 404"))

	assert.True(t, domain.IsTransient(transient))
	assert.False(t, domain.IsPermanent(transient))
	assert.True(t, domain.IsPermanent(permanent))
	assert.False(t, domain.IsTransient(permanent))
}

func TestUnclassifiedErrorIsTransient(t *testing.T) {
	err := errors.New("something broke")
	assert.True(t, domain.IsTransient(err))
	assert.False(t, domain.IsPermanent(err))
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	inner := domain.Permanent("upbit.PlaceOrder", errors.New("status 401"))
	wrapped := fmt.Errorf("tick: %w", inner)

	assert.True(t, domain.IsPermanent(wrapped))
}
