package engine

import (
	"errors"
	"strconv"
	"sync"
)

// ErrPromptComplete is returned when confirming or dismissing a prompt that
// was already answered.
var ErrPromptComplete = errors.New(`engine: prompt already answered`)

// PromptKind identifies a [Prompt] variant.
type PromptKind int

const (
	PromptAlert PromptKind = iota
	PromptBeforeUnload
	PromptRepostConfirm
	PromptButton
	PromptText
	PromptAuth
	PromptChoice
	PromptColor
	PromptDateTime
	PromptFile
	PromptPopup
	PromptShare
	PromptLoginSave
	PromptLoginSelect
	PromptCreditCardSelect
)

var promptKindNames = [...]string{
	PromptAlert:            `alert`,
	PromptBeforeUnload:     `beforeunload`,
	PromptRepostConfirm:    `repost`,
	PromptButton:           `button`,
	PromptText:             `text`,
	PromptAuth:             `auth`,
	PromptChoice:           `choice`,
	PromptColor:            `color`,
	PromptDateTime:         `datetime`,
	PromptFile:             `file`,
	PromptPopup:            `popup`,
	PromptShare:            `share`,
	PromptLoginSave:        `loginsave`,
	PromptLoginSelect:      `loginselect`,
	PromptCreditCardSelect: `creditcardselect`,
}

func (x PromptKind) String() string {
	if x >= 0 && int(x) < len(promptKindNames) {
		return promptKindNames[x]
	}
	return `PromptKind(` + strconv.Itoa(int(x)) + `)`
}

type (
	// Prompt is a request from page content for user input. Every variant
	// embeds [BasePrompt], and is answered exactly once, through Dismiss or
	// the variant's Confirm method.
	Prompt interface {
		Kind() PromptKind
		Dismiss() (PromptResponse, error)
		IsComplete() bool
	}

	// BasePrompt carries the state shared by every prompt variant.
	BasePrompt struct {
		Title    string
		mu       sync.Mutex
		complete bool
	}

	// PromptResponse is the answer to a prompt. Only the fields relevant to
	// Kind are set.
	PromptResponse struct {
		Kind      PromptKind
		Dismissed bool

		Allow    bool
		Button   ButtonType
		Text     string
		Username string
		Password string
		// Choices holds the selected choice ids.
		Choices []string
		// Files holds the selected file URIs.
		Files      []string
		Share      ShareResult
		Login      *LoginEntry
		CreditCard *CreditCard
	}

	AlertPrompt struct {
		BasePrompt
		Message string
	}

	BeforeUnloadPrompt struct {
		BasePrompt
	}

	RepostConfirmPrompt struct {
		BasePrompt
	}

	ButtonPrompt struct {
		BasePrompt
		Message string
	}

	ButtonType int

	TextPrompt struct {
		BasePrompt
		Message      string
		DefaultValue string
	}

	AuthPrompt struct {
		BasePrompt
		Message string
		Options AuthOptions
	}

	AuthOptions struct {
		Flags    AuthFlags
		URI      string
		Level    AuthLevel
		Username string
		Password string
	}

	AuthFlags int

	AuthLevel int

	ChoicePrompt struct {
		BasePrompt
		Message string
		Type    ChoiceType
		Choices []Choice
	}

	ChoiceType int

	// Choice is one item of a [ChoicePrompt], possibly a group of Items.
	Choice struct {
		ID        string
		Label     string
		Icon      string
		Disabled  bool
		Selected  bool
		Separator bool
		Items     []Choice
	}

	ColorPrompt struct {
		BasePrompt
		DefaultValue string
	}

	DateTimePrompt struct {
		BasePrompt
		Type         DateTimeType
		DefaultValue string
		MinValue     string
		MaxValue     string
	}

	DateTimeType int

	FilePrompt struct {
		BasePrompt
		Type      FileType
		MIMETypes []string
		Capture   CaptureType
	}

	FileType int

	CaptureType int

	PopupPrompt struct {
		BasePrompt
		TargetURI string
	}

	SharePrompt struct {
		BasePrompt
		Text string
		URI  string
	}

	ShareResult int

	LoginSavePrompt struct {
		BasePrompt
		Options []LoginEntry
	}

	LoginSelectPrompt struct {
		BasePrompt
		Options []LoginEntry
	}

	LoginEntry struct {
		GUID     string
		Origin   string
		Username string
		Password string
	}

	CreditCardSelectPrompt struct {
		BasePrompt
		Options []CreditCard
	}

	CreditCard struct {
		GUID        string
		Name        string
		Number      string
		ExpiryMonth string
		ExpiryYear  string
	}
)

const (
	ButtonPositive ButtonType = 0
	ButtonNegative ButtonType = 2
)

const (
	AuthFlagHost AuthFlags = 1 << iota
	AuthFlagProxy
	AuthFlagOnlyPassword
	AuthFlagPreviousFailed
	AuthFlagCrossOriginSubResource
)

const (
	AuthLevelNone AuthLevel = iota
	AuthLevelPasswordEncrypted
	AuthLevelSecure
)

const (
	ChoiceMenu ChoiceType = iota + 1
	ChoiceSingle
	ChoiceMultiple
)

const (
	DateTimeDate DateTimeType = iota + 1
	DateTimeMonth
	DateTimeWeek
	DateTimeTime
	DateTimeLocal
)

const (
	FileSingle FileType = iota + 1
	FileMultiple
)

const (
	CaptureNone CaptureType = iota
	CaptureAny
	CaptureUser
	CaptureEnvironment
)

const (
	ShareSuccess ShareResult = iota
	ShareFailure
	ShareAbort
)

// IsComplete reports whether the prompt was answered.
func (x *BasePrompt) IsComplete() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.complete
}

// answer marks the prompt complete, returning the response built by fill.
func (x *BasePrompt) answer(kind PromptKind, fill func(r *PromptResponse)) (PromptResponse, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.complete {
		return PromptResponse{}, ErrPromptComplete
	}
	x.complete = true
	r := PromptResponse{Kind: kind}
	if fill != nil {
		fill(&r)
	}
	return r, nil
}

func dismiss(r *PromptResponse) { r.Dismissed = true }

func allowFn(v AllowOrDeny) func(r *PromptResponse) {
	return func(r *PromptResponse) { r.Allow = v != Deny }
}

func (x *AlertPrompt) Kind() PromptKind { return PromptAlert }

func (x *AlertPrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptAlert, dismiss) }

func (x *BeforeUnloadPrompt) Kind() PromptKind { return PromptBeforeUnload }

func (x *BeforeUnloadPrompt) Dismiss() (PromptResponse, error) {
	return x.answer(PromptBeforeUnload, dismiss)
}

// Confirm answers whether the page may be unloaded.
func (x *BeforeUnloadPrompt) Confirm(v AllowOrDeny) (PromptResponse, error) {
	return x.answer(PromptBeforeUnload, allowFn(v))
}

func (x *RepostConfirmPrompt) Kind() PromptKind { return PromptRepostConfirm }

func (x *RepostConfirmPrompt) Dismiss() (PromptResponse, error) {
	return x.answer(PromptRepostConfirm, dismiss)
}

// Confirm answers whether the form data may be resubmitted.
func (x *RepostConfirmPrompt) Confirm(v AllowOrDeny) (PromptResponse, error) {
	return x.answer(PromptRepostConfirm, allowFn(v))
}

func (x *ButtonPrompt) Kind() PromptKind { return PromptButton }

func (x *ButtonPrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptButton, dismiss) }

func (x *ButtonPrompt) Confirm(button ButtonType) (PromptResponse, error) {
	return x.answer(PromptButton, func(r *PromptResponse) { r.Button = button })
}

func (x *TextPrompt) Kind() PromptKind { return PromptText }

func (x *TextPrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptText, dismiss) }

func (x *TextPrompt) Confirm(text string) (PromptResponse, error) {
	return x.answer(PromptText, func(r *PromptResponse) { r.Text = text })
}

func (x *AuthPrompt) Kind() PromptKind { return PromptAuth }

func (x *AuthPrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptAuth, dismiss) }

// ConfirmPassword answers a prompt with [AuthFlagOnlyPassword] set.
func (x *AuthPrompt) ConfirmPassword(password string) (PromptResponse, error) {
	return x.answer(PromptAuth, func(r *PromptResponse) { r.Password = password })
}

func (x *AuthPrompt) Confirm(username, password string) (PromptResponse, error) {
	return x.answer(PromptAuth, func(r *PromptResponse) {
		r.Username = username
		r.Password = password
	})
}

func (x *ChoicePrompt) Kind() PromptKind { return PromptChoice }

func (x *ChoicePrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptChoice, dismiss) }

// Confirm selects choices by id. Menu and single choice prompts accept at
// most one id.
func (x *ChoicePrompt) Confirm(ids ...string) (PromptResponse, error) {
	if x.Type != ChoiceMultiple && len(ids) > 1 {
		return PromptResponse{}, errors.New(`engine: choice prompt accepts a single selection`)
	}
	return x.answer(PromptChoice, func(r *PromptResponse) { r.Choices = append([]string(nil), ids...) })
}

func (x *ColorPrompt) Kind() PromptKind { return PromptColor }

func (x *ColorPrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptColor, dismiss) }

func (x *ColorPrompt) Confirm(color string) (PromptResponse, error) {
	return x.answer(PromptColor, func(r *PromptResponse) { r.Text = color })
}

func (x *DateTimePrompt) Kind() PromptKind { return PromptDateTime }

func (x *DateTimePrompt) Dismiss() (PromptResponse, error) {
	return x.answer(PromptDateTime, dismiss)
}

func (x *DateTimePrompt) Confirm(value string) (PromptResponse, error) {
	return x.answer(PromptDateTime, func(r *PromptResponse) { r.Text = value })
}

func (x *FilePrompt) Kind() PromptKind { return PromptFile }

func (x *FilePrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptFile, dismiss) }

func (x *FilePrompt) Confirm(uris ...string) (PromptResponse, error) {
	if x.Type == FileSingle && len(uris) > 1 {
		return PromptResponse{}, errors.New(`engine: file prompt accepts a single file`)
	}
	return x.answer(PromptFile, func(r *PromptResponse) { r.Files = append([]string(nil), uris...) })
}

func (x *PopupPrompt) Kind() PromptKind { return PromptPopup }

func (x *PopupPrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptPopup, dismiss) }

// Confirm answers whether the popup may open.
func (x *PopupPrompt) Confirm(v AllowOrDeny) (PromptResponse, error) {
	return x.answer(PromptPopup, allowFn(v))
}

func (x *SharePrompt) Kind() PromptKind { return PromptShare }

func (x *SharePrompt) Dismiss() (PromptResponse, error) { return x.answer(PromptShare, dismiss) }

func (x *SharePrompt) Confirm(v ShareResult) (PromptResponse, error) {
	return x.answer(PromptShare, func(r *PromptResponse) { r.Share = v })
}

func (x *LoginSavePrompt) Kind() PromptKind { return PromptLoginSave }

func (x *LoginSavePrompt) Dismiss() (PromptResponse, error) {
	return x.answer(PromptLoginSave, dismiss)
}

func (x *LoginSavePrompt) Confirm(login LoginEntry) (PromptResponse, error) {
	return x.answer(PromptLoginSave, func(r *PromptResponse) { r.Login = &login })
}

func (x *LoginSelectPrompt) Kind() PromptKind { return PromptLoginSelect }

func (x *LoginSelectPrompt) Dismiss() (PromptResponse, error) {
	return x.answer(PromptLoginSelect, dismiss)
}

func (x *LoginSelectPrompt) Confirm(login LoginEntry) (PromptResponse, error) {
	return x.answer(PromptLoginSelect, func(r *PromptResponse) { r.Login = &login })
}

func (x *CreditCardSelectPrompt) Kind() PromptKind { return PromptCreditCardSelect }

func (x *CreditCardSelectPrompt) Dismiss() (PromptResponse, error) {
	return x.answer(PromptCreditCardSelect, dismiss)
}

func (x *CreditCardSelectPrompt) Confirm(card CreditCard) (PromptResponse, error) {
	return x.answer(PromptCreditCardSelect, func(r *PromptResponse) { r.CreditCard = &card })
}
