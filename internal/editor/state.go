package editor

import "github.com/BruksfildServices01/clientflow/internal/httperr"

// ===============================
// Editor State
// ===============================

type State string

const (
	StateClosed     State = "closed"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
)

// ===============================
// Transitions
// ===============================

// Open vale de qualquer estado: abrir outro registro reinicia em loading.
func CanOpen(State) error {
	return nil
}

// CanSubmit só a partir de ready
func CanSubmit(current State) error {
	if current != StateReady {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

// CanClose fecha um editor carregado ou ainda carregando
func CanClose(current State) error {
	if current != StateReady && current != StateLoading {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}
