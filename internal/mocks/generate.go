// Package mocks provides gomock implementations of the store ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockRateCounterStore(ctrl)
//	store.EXPECT().Consume(gomock.Any(), "login:1.2.3.4", gomock.Any(), gomock.Any()).Return(decision, nil)
package mocks

// Generate mocks for the store ports: RateCounterStore (Consume), RevocationStore (Revoke, IsRevoked)
// and Sweeper (Sweep).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/quizgate/internal/ports RateCounterStore,RevocationStore,Sweeper
