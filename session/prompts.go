package session

import (
	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/result"
)

type (
	promptHandler     struct{ s *Session }
	permissionHandler struct{ s *Session }
)

var (
	_ engine.PromptDelegate     = promptHandler{}
	_ engine.PermissionDelegate = permissionHandler{}
)

// promptNeedsCurrentSession reports whether prompts of kind are only
// forwarded for the current engine session. The rest (e.g. popups, which
// may be raised while a child session takes over) go to the delegate
// regardless.
func promptNeedsCurrentSession(kind engine.PromptKind) bool {
	switch kind {
	case engine.PromptAlert,
		engine.PromptButton,
		engine.PromptText,
		engine.PromptAuth,
		engine.PromptChoice,
		engine.PromptColor,
		engine.PromptDateTime:
		return true
	default:
		return false
	}
}

// OnPrompt forwards to the prompt delegate, dismissing the prompt if there
// is none, or it gave no answer.
func (x promptHandler) OnPrompt(es engine.Session, prompt engine.Prompt) *result.Result[engine.PromptResponse] {
	s := x.s
	if d := s.promptDelegate; d != nil && (s.isCurrent(es) || !promptNeedsCurrentSession(prompt.Kind())) {
		if r := d.OnPrompt(es, prompt); r != nil {
			return r
		}
	}
	s.logger.Debug().Stringer(`kind`, prompt.Kind()).Log(`dismissing prompt`)
	response, err := prompt.Dismiss()
	if err != nil {
		return result.FromError[engine.PromptResponse](s.exec(), err)
	}
	return result.FromValue(s.exec(), response)
}

func (x permissionHandler) delegate(es engine.Session) engine.PermissionDelegate {
	if !x.s.isCurrent(es) {
		return nil
	}
	return x.s.permissionDelegate
}

func (x permissionHandler) OnAndroidPermissionsRequest(es engine.Session, permissions []string, callback engine.PermissionCallback) {
	if d := x.delegate(es); d != nil {
		d.OnAndroidPermissionsRequest(es, permissions, callback)
		return
	}
	callback.Reject()
}

func (x permissionHandler) OnContentPermissionRequest(es engine.Session, uri string, permission engine.PermissionType, callback engine.PermissionCallback) {
	if d := x.delegate(es); d != nil {
		d.OnContentPermissionRequest(es, uri, permission, callback)
		return
	}
	callback.Reject()
}

func (x permissionHandler) OnMediaPermissionRequest(es engine.Session, uri string, video, audio []engine.MediaSource, callback engine.PermissionCallback) {
	if d := x.delegate(es); d != nil {
		d.OnMediaPermissionRequest(es, uri, video, audio, callback)
		return
	}
	callback.Reject()
}
