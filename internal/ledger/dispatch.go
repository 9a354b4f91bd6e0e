package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Command is one user intent.
type Command interface {
	command()
}

// SubmitCommand saves the form: a new transaction, or the open edit.
type SubmitCommand struct {
	Candidate model.Candidate
}

// EditCommand replaces a stored transaction in one step, without an edit
// session.
type EditCommand struct {
	Category  model.Category
	ID        string
	Candidate model.Candidate
}

// DeleteCommand removes a transaction.
type DeleteCommand struct {
	Category model.Category
	ID       string
}

// BeginEditCommand loads a transaction into the form.
type BeginEditCommand struct {
	Category model.Category
	ID       string
}

// CancelEditCommand abandons the open edit.
type CancelEditCommand struct{}

// ViewCommand switches to a category.
type ViewCommand struct {
	Category model.Category
}

// AddBalanceCommand tops up the balance.
type AddBalanceCommand struct {
	Amount string
}

// ClearCommand removes every transaction.
type ClearCommand struct{}

func (SubmitCommand) command()     {}
func (EditCommand) command()       {}
func (DeleteCommand) command()     {}
func (BeginEditCommand) command()  {}
func (CancelEditCommand) command() {}
func (ViewCommand) command()       {}
func (AddBalanceCommand) command() {}
func (ClearCommand) command()      {}

// Tone tells the presentation layer how to style a notification.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// Notification messages.
const (
	MsgSaved        = "Transaction saved"
	MsgUpdated      = "Transaction updated"
	MsgDeleted      = "Transaction deleted"
	MsgNotFound     = "Transaction not found"
	MsgEditMode     = "Edit mode: update & save"
	MsgEditCanceled = "Edit canceled"
	MsgBalanceAdded = "Balance Added"
	MsgCleared      = "All data cleared"
	MsgStorage      = "Could not save changes"
	MsgUnknownCat   = "Unknown category"
)

// Result is the outcome of a Command. Exactly the fields relevant to the
// command are set.
type Result struct {
	OK          bool
	Tone        Tone
	Message     string
	Errors      []string           // every validation message, first one shown
	Transaction *model.Transaction // submitted or edited transaction
	Removed     *model.Transaction // deleted transaction
	Form        *model.Candidate   // form values for an edit
	View        *View
	Balance     decimal.Decimal
	Err         error
}

// Dispatch runs cmd against svc and turns the outcome into a Result.
func Dispatch(ctx context.Context, svc *Service, cmd Command) Result {
	switch c := cmd.(type) {
	case SubmitCommand:
		tx, edited, err := svc.submit(ctx, c.Candidate)
		if err != nil {
			return failure(err)
		}
		msg := MsgSaved
		if edited {
			msg = MsgUpdated
		}
		return withBalance(ctx, svc, Result{OK: true, Tone: ToneSuccess, Message: msg, Transaction: &tx})

	case EditCommand:
		tx, err := svc.Edit(ctx, c.Category, c.ID, c.Candidate)
		if err != nil {
			return failure(err)
		}
		return withBalance(ctx, svc, Result{OK: true, Tone: ToneSuccess, Message: MsgUpdated, Transaction: &tx})

	case DeleteCommand:
		removed, err := svc.Delete(ctx, c.Category, c.ID)
		if err != nil {
			return failure(err)
		}
		return withBalance(ctx, svc, Result{OK: true, Tone: ToneSuccess, Message: MsgDeleted, Removed: &removed})

	case BeginEditCommand:
		session, err := svc.BeginEdit(ctx, c.Category, c.ID)
		if err != nil {
			return failure(err)
		}
		return Result{OK: true, Tone: ToneSuccess, Message: MsgEditMode, Form: &session.Form}

	case CancelEditCommand:
		svc.CancelEdit()
		return Result{OK: true, Tone: ToneSuccess, Message: MsgEditCanceled}

	case ViewCommand:
		view, err := svc.CategoryView(ctx, c.Category)
		if err != nil {
			return failure(err)
		}
		return Result{OK: true, Tone: ToneSuccess, View: &view, Balance: view.Balance}

	case AddBalanceCommand:
		amount, ok := ParseAmount(c.Amount)
		if !ok {
			return failure(ValidationErrors{{Field: "amount", Message: MsgInvalidAmount}})
		}
		bal, err := svc.AddBalance(ctx, amount)
		if err != nil {
			return failure(err)
		}
		return Result{OK: true, Tone: ToneSuccess, Message: MsgBalanceAdded, Balance: bal}

	case ClearCommand:
		if _, err := svc.Clear(ctx); err != nil {
			return failure(err)
		}
		return withBalance(ctx, svc, Result{OK: true, Tone: ToneSuccess, Message: MsgCleared})

	default:
		return Result{Tone: ToneError, Message: "unsupported command"}
	}
}

func withBalance(ctx context.Context, svc *Service, r Result) Result {
	if bal, err := svc.Balance(ctx); err == nil {
		r.Balance = bal
	}
	return r
}

func failure(err error) Result {
	r := Result{Tone: ToneError, Err: err}

	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		r.Errors = verrs.Messages()
		r.Message = verrs.First()
	case errors.Is(err, ErrNotFound):
		r.Message = MsgNotFound
	case errors.Is(err, ErrUnknownCategory):
		r.Message = MsgUnknownCat
	default:
		r.Message = MsgStorage
	}
	return r
}
