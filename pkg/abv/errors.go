package abv

import "golang.org/x/xerrors"

// Error kinds. Operations wrap them with context; match with errors.Is.
var (
	// ErrParse reports malformed or missing points, scalars or messages.
	ErrParse = xerrors.New("abv: parse error")
	// ErrVerification reports a rejected coordinator signature or a blank
	// ballot that does not commit to the expected weight.
	ErrVerification = xerrors.New("abv: verification error")
	ErrRangeProof   = xerrors.New("abv: range proof rejected")
	ErrFormatProof  = xerrors.New("abv: format proof rejected")
	ErrBalanceProof = xerrors.New("abv: balance proof rejected")
	// ErrIncompleteAggregation reports a share set that is not exactly the
	// registered counter set.
	ErrIncompleteAggregation = xerrors.New("abv: incomplete parameter aggregation")
	// ErrInvalidChoices reports vote choices that do not follow the candidate list.
	ErrInvalidChoices = xerrors.New("abv: vote choices do not match candidates")
	// ErrOverspend reports vote choices summing past the certified weight.
	ErrOverspend = xerrors.New("abv: vote choices exceed certified weight")
)
