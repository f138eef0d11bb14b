// Package mocks provides shared test doubles for the store and auth
// interfaces.
//
// Store mocks are built on testify/mock:
//
//	users := new(mocks.UserStore)
//	users.On("GetByEmail", mock.Anything, "a@example.com").Return(user, nil)
//	defer users.AssertExpectations(t)
//
// Auth mocks use function fields with fallback default values, so a test
// only sets the behavior it cares about.
package mocks
