package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/export"
	"github.com/noah-isme/kas-kelas-api/pkg/paycode"
)

type studentDirectory interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type paymentTypeDirectory interface {
	ListActive(ctx context.Context) ([]models.PaymentType, error)
}

type paymentLedger interface {
	ListByStudentAndType(ctx context.Context, studentID, paymentTypeID string) ([]models.Payment, error)
	InsertApproved(ctx context.Context, payment *models.Payment) error
}

// GenerateCodeRequest asks for a code a student can read out to an officer.
type GenerateCodeRequest struct {
	PaymentTypeID string   `json:"paymentTypeId" validate:"required"`
	RecipientIDs  []string `json:"recipientIds" validate:"omitempty,max=30,dive,required"`
}

// GeneratedCode is a code together with what it is expected to resolve to.
type GeneratedCode struct {
	Code        string                     `json:"code"`
	Kind        paycode.Kind               `json:"kind"`
	PaymentType models.PaymentType         `json:"paymentType"`
	Recipients  []models.Student           `json:"recipients"`
	TotalAmount int64                      `json:"totalAmount"`
	Warnings    []models.ResolutionWarning `json:"warnings,omitempty"`
}

// PaymentCodeService turns spoken payment codes into recorded cash payments.
type PaymentCodeService struct {
	students     studentDirectory
	paymentTypes paymentTypeDirectory
	ledger       paymentLedger
	sessions     scanSessionStore
	notifier     Notifier
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

// PaymentCodeDeps groups the collaborators of PaymentCodeService.
type PaymentCodeDeps struct {
	Students     studentDirectory
	PaymentTypes paymentTypeDirectory
	Ledger       paymentLedger
	Sessions     scanSessionStore
	Notifier     Notifier
	Cache        *CacheService
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewPaymentCodeService constructs the service.
func NewPaymentCodeService(deps PaymentCodeDeps) *PaymentCodeService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &PaymentCodeService{
		students:     deps.Students,
		paymentTypes: deps.PaymentTypes,
		ledger:       deps.Ledger,
		sessions:     deps.Sessions,
		notifier:     deps.Notifier,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
		now:          time.Now,
		newID:        newSessionID,
	}
}

// Format normalises partially typed input into the canonical code layout.
func (s *PaymentCodeService) Format(raw string) string {
	return paycode.Format(raw)
}

// Resolve decodes a code against the current students, active payment types and ledger.
// Nothing is cached: every call reads fresh rows.
func (s *PaymentCodeService) Resolve(ctx context.Context, raw string) (*models.ResolvedIntent, error) {
	formatted := paycode.Format(raw)
	code, err := paycode.Parse(formatted)
	if err != nil {
		s.metrics.RecordCodeResolution("", appErrors.ErrInvalidCodeFormat.Code, nil)
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidCodeFormat.Code, appErrors.ErrInvalidCodeFormat.Status,
			fmt.Sprintf("payment code %q is not a valid single-pay or multi-pay code", formatted))
	}

	var intent *models.ResolvedIntent
	switch code.Kind {
	case paycode.KindMulti:
		intent, err = s.resolveMulti(ctx, code)
	default:
		intent, err = s.resolveSingle(ctx, code)
	}
	if err != nil {
		s.metrics.RecordCodeResolution(string(code.Kind), appErrors.FromError(err).Code, nil)
		return nil, err
	}
	s.metrics.RecordCodeResolution(string(code.Kind), "OK", intent.Warnings)
	s.logger.Info("payment code resolved",
		zap.String("code", intent.Code),
		zap.String("kind", string(intent.Kind)),
		zap.String("payment_type_id", intent.PaymentType.ID),
		zap.Int("recipients", len(intent.Recipients)),
		zap.Int("warnings", len(intent.Warnings)))
	return intent, nil
}

func (s *PaymentCodeService) resolveMulti(ctx context.Context, code paycode.Code) (*models.ResolvedIntent, error) {
	var warnings []models.ResolutionWarning

	paymentType, warning, err := s.matchPaymentType(ctx, code.PaymentTypeSuffix)
	if err != nil {
		return nil, err
	}
	warnings = appendWarning(warnings, warning)

	students, err := s.loadStudents(ctx)
	if err != nil {
		return nil, err
	}

	payerMatch := paycode.FirstMatch(students, regNumberOf, paycode.BySuffix(code.PayerSuffix))
	if !payerMatch.Found() {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrPayerNotIdentified, fmt.Sprintf("no student registration number ends with %q", code.PayerSuffix)),
			map[string]interface{}{"payerSuffix": code.PayerSuffix})
	}
	if payerMatch.Ambiguous() {
		warnings = append(warnings, ambiguousStudent(code.PayerSuffix, payerMatch))
	}

	candidates := make([]models.Student, 0, len(code.RecipientSuffixes))
	seen := make(map[string]bool, len(code.RecipientSuffixes))
	for _, suffix := range code.RecipientSuffixes {
		m := paycode.FirstMatch(students, regNumberOf, paycode.BySuffix(suffix))
		if !m.Found() {
			warnings = append(warnings, models.ResolutionWarning{
				Kind:    models.WarningUnmatchedSuffix,
				Segment: suffix,
				Message: fmt.Sprintf("no student registration number ends with %q; skipped", suffix),
			})
			continue
		}
		if m.Ambiguous() {
			warnings = append(warnings, ambiguousStudent(suffix, m))
		}
		if seen[m.Item.ID] {
			warnings = append(warnings, models.ResolutionWarning{
				Kind:      models.WarningDuplicateRecipient,
				Segment:   suffix,
				StudentID: m.Item.ID,
				Message:   fmt.Sprintf("%s is listed more than once; counted once", m.Item.FullName),
			})
			continue
		}
		seen[m.Item.ID] = true
		candidates = append(candidates, m.Item)
	}
	if len(candidates) == 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrNoValidRecipients, "none of the recipient suffixes match a student"),
			map[string]interface{}{"recipientSuffixes": code.RecipientSuffixes, "warnings": warnings})
	}

	recipients, paidWarnings, err := s.excludePaid(ctx, candidates, paymentType)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, paidWarnings...)
	if len(recipients) == 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrAllAlreadyPaid, fmt.Sprintf("every recipient has already paid %s", paymentType.Title)),
			map[string]interface{}{"studentIds": warningStudentIDs(paidWarnings)})
	}

	return newIntent(code, payerMatch.Item, recipients, paymentType, warnings), nil
}

func (s *PaymentCodeService) resolveSingle(ctx context.Context, code paycode.Code) (*models.ResolvedIntent, error) {
	var warnings []models.ResolutionWarning

	students, err := s.loadStudents(ctx)
	if err != nil {
		return nil, err
	}
	studentMatch := paycode.FirstMatch(students, studentIDOf, paycode.ByPrefix(code.StudentPrefix))
	if !studentMatch.Found() {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrStudentNotFound, fmt.Sprintf("no student id starts with %q", code.StudentPrefix)),
			map[string]interface{}{"studentPrefix": code.StudentPrefix})
	}
	if studentMatch.Ambiguous() {
		warnings = append(warnings, ambiguousStudent(code.StudentPrefix, studentMatch))
	}

	paymentType, warning, err := s.matchPaymentType(ctx, code.PaymentTypeSuffix)
	if err != nil {
		return nil, err
	}
	warnings = appendWarning(warnings, warning)

	student := studentMatch.Item
	remaining, paidWarnings, err := s.excludePaid(ctx, []models.Student{student}, paymentType)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrAlreadyPaid, fmt.Sprintf("%s has already paid %s", student.FullName, paymentType.Title)),
			map[string]interface{}{"studentId": student.ID, "paymentTypeId": paymentType.ID})
	}
	warnings = append(warnings, paidWarnings...)

	return newIntent(code, student, remaining, paymentType, warnings), nil
}

func newIntent(code paycode.Code, payer models.Student, recipients []models.Student, paymentType models.PaymentType, warnings []models.ResolutionWarning) *models.ResolvedIntent {
	return &models.ResolvedIntent{
		Code:               code.Raw,
		Kind:               code.Kind,
		Payer:              payer,
		Recipients:         recipients,
		PaymentType:        paymentType,
		AmountPerRecipient: paymentType.Amount,
		TotalAmount:        paymentType.Amount * int64(len(recipients)),
		Warnings:           warnings,
	}
}

func (s *PaymentCodeService) matchPaymentType(ctx context.Context, suffix string) (models.PaymentType, *models.ResolutionWarning, error) {
	types, err := s.loadPaymentTypes(ctx)
	if err != nil {
		return models.PaymentType{}, nil, err
	}
	m := paycode.FirstMatch(types, func(p models.PaymentType) string { return p.ID }, paycode.BySuffix(suffix))
	if !m.Found() {
		return models.PaymentType{}, nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrPaymentTypeNotFound, fmt.Sprintf("no active payment type id ends with %q", suffix)),
			map[string]interface{}{"paymentTypeSuffix": suffix})
	}
	if m.Ambiguous() {
		return m.Item, &models.ResolutionWarning{
			Kind:    models.WarningAmbiguousMatch,
			Segment: suffix,
			Message: fmt.Sprintf("%d active payment types end with %q; using %s", m.Count, suffix, m.Item.Title),
		}, nil
	}
	return m.Item, nil, nil
}

// excludePaid drops students whose approved total already covers the payment type.
func (s *PaymentCodeService) excludePaid(ctx context.Context, candidates []models.Student, paymentType models.PaymentType) ([]models.Student, []models.ResolutionWarning, error) {
	remaining := make([]models.Student, 0, len(candidates))
	var warnings []models.ResolutionWarning
	for _, student := range candidates {
		payments, err := s.ledger.ListByStudentAndType(ctx, student.ID, paymentType.ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment history")
		}
		paid := models.ApprovedTotal(payments)
		if paid >= paymentType.Amount {
			warnings = append(warnings, models.ResolutionWarning{
				Kind:      models.WarningAlreadyPaid,
				StudentID: student.ID,
				Message:   fmt.Sprintf("%s has already paid %s (%s)", student.FullName, paymentType.Title, export.FormatRupiah(paid)),
			})
			continue
		}
		remaining = append(remaining, student)
	}
	return remaining, warnings, nil
}

func (s *PaymentCodeService) loadStudents(ctx context.Context) ([]models.Student, error) {
	rows, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	valid := rows[:0:0]
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			s.logger.Warn("skipping malformed student row", zap.Error(err))
			continue
		}
		valid = append(valid, row)
	}
	return valid, nil
}

func (s *PaymentCodeService) loadPaymentTypes(ctx context.Context) ([]models.PaymentType, error) {
	rows, err := s.paymentTypes.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment types")
	}
	valid := rows[:0:0]
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			s.logger.Warn("skipping malformed payment type row", zap.Error(err))
			continue
		}
		valid = append(valid, row)
	}
	return valid, nil
}

// Confirm records one approved cash payment per recipient, one write at a time. A failed
// write does not stop the batch; the summary lists what failed. Only when no write
// succeeds is an error returned, together with the summary.
func (s *PaymentCodeService) Confirm(ctx context.Context, officerID string, intent models.ResolvedIntent, note string) (*models.ConfirmationSummary, error) {
	if len(intent.Recipients) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoValidRecipients, "intent has no recipients")
	}
	// The batch is not cancellable once started.
	ctx = context.WithoutCancel(ctx)

	if strings.TrimSpace(note) == "" {
		note = fmt.Sprintf("Cash payment via code %s, paid by %s", intent.Code, intent.Payer.FullName)
	}
	approver := officerID

	summary := &models.ConfirmationSummary{Recorded: make([]models.Payment, 0, len(intent.Recipients))}
	for _, recipient := range intent.Recipients {
		paymentNote := note
		payment := &models.Payment{
			StudentID:     recipient.ID,
			PaymentTypeID: intent.PaymentType.ID,
			Amount:        intent.AmountPerRecipient,
			Method:        models.PaymentMethodCash,
			ApprovedBy:    &approver,
			Note:          &paymentNote,
		}
		if err := s.ledger.InsertApproved(ctx, payment); err != nil {
			s.metrics.RecordPaymentWrite(false)
			s.logger.Error("cash payment write failed",
				zap.String("student_id", recipient.ID),
				zap.String("payment_type_id", intent.PaymentType.ID),
				zap.Error(err))
			summary.Failed = append(summary.Failed, models.RecipientFailure{Student: recipient, Error: err.Error()})
			continue
		}
		s.metrics.RecordPaymentWrite(true)
		summary.Recorded = append(summary.Recorded, *payment)
		s.notifyRecipient(ctx, recipient, intent)
	}
	summary.Message = summary.Describe()

	if len(summary.Recorded) == 0 {
		return summary, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrTotalWriteFailure, summary.Message),
			map[string]interface{}{"failed": summary.Failed})
	}
	_ = s.cache.Invalidate(ctx, CacheKey("dashboard", "*"))

	fields := []zap.Field{
		zap.String("code", intent.Code),
		zap.String("officer_id", officerID),
		zap.Int("recorded", len(summary.Recorded)),
		zap.Int("failed", len(summary.Failed)),
	}
	if summary.Partial() {
		s.logger.Warn("cash confirmation partially failed", fields...)
	} else {
		s.logger.Info("cash confirmation recorded", fields...)
	}
	return summary, nil
}

func (s *PaymentCodeService) notifyRecipient(ctx context.Context, recipient models.Student, intent models.ResolvedIntent) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("Your cash payment of %s for %s has been recorded", export.FormatRupiah(intent.AmountPerRecipient), intent.PaymentType.Title)
	if intent.Payer.ID != "" && intent.Payer.ID != recipient.ID {
		message += fmt.Sprintf(" (paid by %s)", intent.Payer.FullName)
	}
	s.notifier.Notify(ctx, recipient.ID, "Payment received", message)
}

// Generate builds the code a student reads out to an officer. Without recipients the
// student pays for themselves with a single-pay code.
func (s *PaymentCodeService) Generate(ctx context.Context, studentID string, req GenerateCodeRequest) (*GeneratedCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment code request")
	}
	types, err := s.loadPaymentTypes(ctx)
	if err != nil {
		return nil, err
	}
	var paymentType *models.PaymentType
	for i := range types {
		if types[i].ID == req.PaymentTypeID {
			paymentType = &types[i]
			break
		}
	}
	if paymentType == nil {
		return nil, appErrors.Clone(appErrors.ErrPaymentTypeNotFound, "payment type is not active")
	}

	students, err := s.loadStudents(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}
	payer, ok := byID[studentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "student profile not found")
	}

	var (
		code       string
		kind       paycode.Kind
		recipients []models.Student
	)
	if len(req.RecipientIDs) == 0 {
		recipients = []models.Student{payer}
		code, err = paycode.EncodeSingle(payer.ID, paymentType.ID, s.now())
		kind = paycode.KindSingle
		if errors.Is(err, paycode.ErrAmbiguousPrefix) {
			code, err = paycode.EncodeMulti(paymentType.ID, payer.RegNumber, []string{payer.RegNumber})
			kind = paycode.KindMulti
		}
	} else {
		regs := make([]string, 0, len(req.RecipientIDs))
		for _, id := range req.RecipientIDs {
			st, ok := byID[id]
			if !ok {
				return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unknown recipient"), map[string]interface{}{"recipientId": id})
			}
			recipients = append(recipients, st)
			regs = append(regs, st.RegNumber)
		}
		code, err = paycode.EncodeMulti(paymentType.ID, payer.RegNumber, regs)
		kind = paycode.KindMulti
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "identifiers are too short to build a payment code")
	}

	return &GeneratedCode{
		Code:        code,
		Kind:        kind,
		PaymentType: *paymentType,
		Recipients:  recipients,
		TotalAmount: paymentType.Amount * int64(len(recipients)),
		Warnings:    collisionWarnings(code, students, types),
	}, nil
}

// collisionWarnings tells the student up front when their code will be ambiguous for the officer.
func collisionWarnings(code string, students []models.Student, types []models.PaymentType) []models.ResolutionWarning {
	parsed, err := paycode.Parse(code)
	if err != nil {
		return nil
	}
	var warnings []models.ResolutionWarning
	if m := paycode.FirstMatch(types, func(p models.PaymentType) string { return p.ID }, paycode.BySuffix(parsed.PaymentTypeSuffix)); m.Ambiguous() {
		warnings = append(warnings, models.ResolutionWarning{Kind: models.WarningAmbiguousMatch, Segment: parsed.PaymentTypeSuffix,
			Message: fmt.Sprintf("%d active payment types end with %q", m.Count, parsed.PaymentTypeSuffix)})
	}
	check := func(segment string, key func(models.Student) string, pred func(string) bool) {
		if m := paycode.FirstMatch(students, key, pred); m.Ambiguous() {
			warnings = append(warnings, ambiguousStudent(segment, m))
		}
	}
	if parsed.Kind == paycode.KindSingle {
		check(parsed.StudentPrefix, studentIDOf, paycode.ByPrefix(parsed.StudentPrefix))
		return warnings
	}
	check(parsed.PayerSuffix, regNumberOf, paycode.BySuffix(parsed.PayerSuffix))
	for _, suffix := range parsed.RecipientSuffixes {
		check(suffix, regNumberOf, paycode.BySuffix(suffix))
	}
	return warnings
}

func regNumberOf(s models.Student) string { return s.RegNumber }

func studentIDOf(s models.Student) string { return s.ID }

func ambiguousStudent(segment string, m paycode.Match[models.Student]) models.ResolutionWarning {
	return models.ResolutionWarning{
		Kind:      models.WarningAmbiguousMatch,
		Segment:   segment,
		StudentID: m.Item.ID,
		Message:   fmt.Sprintf("%d students match %q; using %s", m.Count, segment, m.Item.FullName),
	}
}

func appendWarning(warnings []models.ResolutionWarning, w *models.ResolutionWarning) []models.ResolutionWarning {
	if w == nil {
		return warnings
	}
	return append(warnings, *w)
}

func warningStudentIDs(warnings []models.ResolutionWarning) []string {
	ids := make([]string, 0, len(warnings))
	for _, w := range warnings {
		ids = append(ids, w.StudentID)
	}
	return ids
}
