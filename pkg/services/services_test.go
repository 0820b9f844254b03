package services_test

import (
	"io"
	"log/slog"

	"github.com/dukex/stepwise/pkg/mocks"
	"github.com/dukex/stepwise/pkg/otelhelper"
	"github.com/dukex/stepwise/pkg/services"
	"github.com/go-playground/validator/v10"
)

type fixture struct {
	persistence *mocks.MockPersistence
	steps       *services.Step
	useCases    *services.UseCase
	addons      *services.Addon
}

func newFixture() *fixture {
	p := mocks.NewMockPersistence()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validate := validator.New()
	tracer := otelhelper.NewNoopTracer()

	return &fixture{
		persistence: p,
		steps:       services.NewStep(p, validate, tracer, logger),
		useCases:    services.NewUseCase(p, validate, tracer, logger),
		addons:      services.NewAddon(p, validate, tracer, logger),
	}
}

func ptr[T any](v T) *T {
	return &v
}
