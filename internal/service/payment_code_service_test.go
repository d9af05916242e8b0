package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/paycode"
)

type fakeStudentDirectory struct {
	students []models.Student
	err      error
}

func (f *fakeStudentDirectory) ListAll(ctx context.Context) ([]models.Student, error) {
	return f.students, f.err
}

type fakePaymentTypeDirectory struct {
	types []models.PaymentType
	err   error
}

func (f *fakePaymentTypeDirectory) ListActive(ctx context.Context) ([]models.PaymentType, error) {
	return f.types, f.err
}

type fakeLedger struct {
	mu       sync.Mutex
	history  []models.Payment
	inserted []models.Payment
	failFor  map[string]error
	calls    int
}

func (f *fakeLedger) ListByStudentAndType(ctx context.Context, studentID, paymentTypeID string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.history {
		if p.StudentID == studentID && p.PaymentTypeID == paymentTypeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertApproved(ctx context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failFor[payment.StudentID]; err != nil {
		return err
	}
	payment.ID = "pay-" + payment.StudentID
	payment.Status = models.PaymentStatusApproved
	f.inserted = append(f.inserted, *payment)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	students []string
}

func (r *recordingNotifier) Notify(ctx context.Context, studentID, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students = append(r.students, studentID)
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.ScanSession
	claims   map[string]bool
	saveErr  error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]models.ScanSession{}, claims: map[string]bool{}}
}

func (m *memorySessionStore) Save(ctx context.Context, session models.ScanSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memorySessionStore) Get(ctx context.Context, id string) (models.ScanSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return models.ScanSession{}, appErrors.Clone(appErrors.ErrNotFound, "scan session not found or expired")
	}
	return session, nil
}

func (m *memorySessionStore) Claim(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[id] {
		return false, nil
	}
	m.claims[id] = true
	return true, nil
}

func (m *memorySessionStore) Release(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, id)
	return nil
}

func (m *memorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.claims, id)
	return nil
}

type codeFixture struct {
	students *fakeStudentDirectory
	types    *fakePaymentTypeDirectory
	ledger   *fakeLedger
	notifier *recordingNotifier
	sessions *memorySessionStore
	svc      *PaymentCodeService
}

func newCodeFixture(students []models.Student, types []models.PaymentType, history []models.Payment) *codeFixture {
	f := &codeFixture{
		students: &fakeStudentDirectory{students: students},
		types:    &fakePaymentTypeDirectory{types: types},
		ledger:   &fakeLedger{history: history, failFor: map[string]error{}},
		notifier: &recordingNotifier{},
		sessions: newMemorySessionStore(),
	}
	f.svc = NewPaymentCodeService(PaymentCodeDeps{
		Students:     f.students,
		PaymentTypes: f.types,
		Ledger:       f.ledger,
		Sessions:     f.sessions,
		Notifier:     f.notifier,
		Metrics:      NewMetricsService(),
	})
	f.svc.now = func() time.Time { return time.Unix(1_700_001_234, 0) }
	f.svc.newID = func() string { return "session-1" }
	return f
}

func student(id, reg, name string) models.Student {
	return models.Student{ID: id, RegNumber: reg, FullName: name, Active: true}
}

func approved(studentID, paymentTypeID string, amount int64) models.Payment {
	return models.Payment{StudentID: studentID, PaymentTypeID: paymentTypeID, Amount: amount, Status: models.PaymentStatusApproved}
}

var kasJuli = models.PaymentType{ID: "pt-0007f2", Title: "Kas Juli", Amount: 5000, Active: true}

func scenarioStudents() []models.Student {
	return []models.Student{
		student("s-payer", "2023/XI/9K1", "Ani"),
		student("s-rec", "2023-3B4", "Budi"),
		student("s-other", "2023-X7Q", "Citra"),
	}
}

func TestResolveMultiPayScenarioA(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)

	intent, err := f.svc.Resolve(context.Background(), "MP-7F2-P9K1-3B4")
	require.NoError(t, err)
	assert.Equal(t, paycode.KindMulti, intent.Kind)
	assert.Equal(t, "s-payer", intent.Payer.ID)
	require.Len(t, intent.Recipients, 1)
	assert.Equal(t, "s-rec", intent.Recipients[0].ID)
	assert.Equal(t, int64(5000), intent.AmountPerRecipient)
	assert.Equal(t, int64(5000), intent.TotalAmount)
	assert.Empty(t, intent.Warnings)
}

func TestResolveMultiPayScenarioBAllAlreadyPaid(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, []models.Payment{approved("s-rec", kasJuli.ID, 5000)})

	_, err := f.svc.Resolve(context.Background(), "MP-7F2-P9K1-3B4")
	assert.ErrorIs(t, err, appErrors.ErrAllAlreadyPaid)
}

func TestResolveSinglePayScenarioCStudentNotFound(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{{ID: "pt-00c2d", Title: "Kas", Amount: 5000, Active: true}}, nil)

	_, err := f.svc.Resolve(context.Background(), "A1B-C2D-1234")
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
}

func TestConfirmScenarioDPartialFailure(t *testing.T) {
	recipients := []models.Student{student("s-1", "001", "Ani"), student("s-2", "002", "Budi"), student("s-3", "003", "Citra")}
	f := newCodeFixture(recipients, []models.PaymentType{kasJuli}, nil)
	f.ledger.failFor["s-2"] = errors.New("connection reset")

	intent := models.ResolvedIntent{Code: "MP-7F2-P001-002.003", Payer: recipients[0], Recipients: recipients, PaymentType: kasJuli, AmountPerRecipient: 5000, TotalAmount: 15000}
	summary, err := f.svc.Confirm(context.Background(), "officer-1", intent, "")
	require.NoError(t, err)
	assert.Equal(t, 3, f.ledger.calls)
	assert.Len(t, summary.Recorded, 2)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "s-2", summary.Failed[0].Student.ID)
	assert.True(t, summary.Partial())
	assert.Equal(t, "Payment confirmed for 2 students, but failed for 1", summary.Message)
	assert.Equal(t, []string{"s-1", "s-3"}, f.notifier.students)

	for _, p := range f.ledger.inserted {
		assert.Equal(t, models.PaymentMethodCash, p.Method)
		assert.Equal(t, "officer-1", *p.ApprovedBy)
		assert.Contains(t, *p.Note, "MP-7F2-P001-002.003")
	}
}

func TestConfirmTotalWriteFailure(t *testing.T) {
	recipients := []models.Student{student("s-1", "001", "Ani")}
	f := newCodeFixture(recipients, []models.PaymentType{kasJuli}, nil)
	f.ledger.failFor["s-1"] = errors.New("db down")

	intent := models.ResolvedIntent{Recipients: recipients, PaymentType: kasJuli, AmountPerRecipient: 5000, TotalAmount: 5000}
	summary, err := f.svc.Confirm(context.Background(), "officer-1", intent, "paid at break")
	assert.ErrorIs(t, err, appErrors.ErrTotalWriteFailure)
	require.NotNil(t, summary)
	assert.Len(t, summary.Failed, 1)
	assert.Empty(t, f.notifier.students)
}

func TestConfirmIgnoresCancelledContext(t *testing.T) {
	recipients := []models.Student{student("s-1", "001", "Ani"), student("s-2", "002", "Budi")}
	f := newCodeFixture(recipients, []models.PaymentType{kasJuli}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.svc.Confirm(ctx, "officer-1", models.ResolvedIntent{Recipients: recipients, PaymentType: kasJuli, AmountPerRecipient: 5000}, "")
	require.NoError(t, err)
	assert.Len(t, summary.Recorded, 2)
}

func TestResolveMultiPayExcludesPaidAndKeepsTotalsConsistent(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, []models.Payment{
		approved("s-rec", kasJuli.ID, 2000),
		approved("s-rec", kasJuli.ID, 3000),
		{StudentID: "s-other", PaymentTypeID: kasJuli.ID, Amount: 5000, Status: models.PaymentStatusPending},
	})

	intent, err := f.svc.Resolve(context.Background(), "mp7f2p9k13b4x7q")
	require.NoError(t, err)
	require.Len(t, intent.Recipients, 1)
	assert.Equal(t, "s-other", intent.Recipients[0].ID)
	assert.Equal(t, intent.AmountPerRecipient*int64(len(intent.Recipients)), intent.TotalAmount)
	require.Len(t, intent.Warnings, 1)
	assert.Equal(t, models.WarningAlreadyPaid, intent.Warnings[0].Kind)
	assert.Equal(t, "s-rec", intent.Warnings[0].StudentID)
}

func TestResolveMultiPayPartialSuffixMiss(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)

	intent, err := f.svc.Resolve(context.Background(), "MP-7F2-P9K1-ZZZ.3B4.YYY")
	require.NoError(t, err)
	require.Len(t, intent.Recipients, 1)
	assert.Equal(t, "s-rec", intent.Recipients[0].ID)
	kinds := []models.WarningKind{intent.Warnings[0].Kind, intent.Warnings[1].Kind}
	assert.Equal(t, []models.WarningKind{models.WarningUnmatchedSuffix, models.WarningUnmatchedSuffix}, kinds)
}

func TestResolveMultiPayFailures(t *testing.T) {
	cases := []struct {
		name string
		code string
		want *appErrors.Error
	}{
		{name: "invalid format", code: "MP-7F2", want: appErrors.ErrInvalidCodeFormat},
		{name: "unknown payment type", code: "MP-AAA-P9K1-3B4", want: appErrors.ErrPaymentTypeNotFound},
		{name: "unknown payer", code: "MP-7F2-PQQQ-3B4", want: appErrors.ErrPayerNotIdentified},
		{name: "no recipient block", code: "MP-7F2-P9K1", want: appErrors.ErrNoValidRecipients},
		{name: "no recipient matches", code: "MP-7F2-P9K1-ZZZ.YYY", want: appErrors.ErrNoValidRecipients},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)
			_, err := f.svc.Resolve(context.Background(), tc.code)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolveCollisionFirstMatchWins(t *testing.T) {
	students := []models.Student{
		student("s-first", "2023-9K1", "Ani"),
		student("s-second", "2024-9K1", "Dewi"),
		student("s-rec", "2023-3B4", "Budi"),
	}
	f := newCodeFixture(students, []models.PaymentType{kasJuli}, nil)

	intent, err := f.svc.Resolve(context.Background(), "MP-7F2-P9K1-3B4")
	require.NoError(t, err)
	assert.Equal(t, "s-first", intent.Payer.ID)
	require.Len(t, intent.Warnings, 1)
	assert.Equal(t, models.WarningAmbiguousMatch, intent.Warnings[0].Kind)
	assert.Equal(t, "9K1", intent.Warnings[0].Segment)
}

func TestResolveDeduplicatesRecipients(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)

	intent, err := f.svc.Resolve(context.Background(), "MP-7F2-P9K1-3B4.3B4")
	require.NoError(t, err)
	assert.Len(t, intent.Recipients, 1)
	assert.Equal(t, int64(5000), intent.TotalAmount)
	require.Len(t, intent.Warnings, 1)
	assert.Equal(t, models.WarningDuplicateRecipient, intent.Warnings[0].Kind)
}

func TestResolveSkipsMalformedRows(t *testing.T) {
	students := append([]models.Student{{ID: "s-bad", RegNumber: "", FullName: "No Reg"}}, scenarioStudents()...)
	types := []models.PaymentType{{ID: "pt-bad-7f2", Title: "Broken", Amount: 0, Active: true}, kasJuli}
	f := newCodeFixture(students, types, nil)

	intent, err := f.svc.Resolve(context.Background(), "MP-7F2-P9K1-3B4")
	require.NoError(t, err)
	assert.Equal(t, kasJuli.ID, intent.PaymentType.ID)
	assert.Empty(t, intent.Warnings)
}

func TestResolveSinglePay(t *testing.T) {
	students := []models.Student{student("a1b2c3d4-0000", "2023-001", "Ani")}
	types := []models.PaymentType{{ID: "ffff-00c2d", Title: "Kas", Amount: 5000, Active: true}}
	f := newCodeFixture(students, types, nil)

	intent, err := f.svc.Resolve(context.Background(), "a1bc2d1234")
	require.NoError(t, err)
	assert.Equal(t, paycode.KindSingle, intent.Kind)
	assert.Equal(t, "A1B-C2D-1234", intent.Code)
	require.Len(t, intent.Recipients, 1)
	assert.Equal(t, intent.Payer, intent.Recipients[0])
	assert.Equal(t, int64(5000), intent.TotalAmount)
}

func TestResolveSinglePayFailures(t *testing.T) {
	students := []models.Student{student("a1b2c3d4-0000", "2023-001", "Ani")}
	types := []models.PaymentType{{ID: "ffff-00c2d", Title: "Kas", Amount: 5000, Active: true}}

	f := newCodeFixture(students, types, nil)
	_, err := f.svc.Resolve(context.Background(), "A1B-ZZZ-1234")
	assert.ErrorIs(t, err, appErrors.ErrPaymentTypeNotFound)

	f = newCodeFixture(students, types, []models.Payment{approved("a1b2c3d4-0000", "ffff-00c2d", 7000)})
	_, err = f.svc.Resolve(context.Background(), "A1B-C2D-1234")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyPaid)
}

func TestResolveDirectoryFailure(t *testing.T) {
	f := newCodeFixture(nil, []models.PaymentType{kasJuli}, nil)
	f.students.err = errors.New("timeout")

	_, err := f.svc.Resolve(context.Background(), "MP-7F2-P9K1-3B4")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestGenerateCodesRoundTrip(t *testing.T) {
	students := []models.Student{
		student("a1b2c3d4-0000", "2023/XI/9K1", "Ani"),
		student("b2c3d4e5-0000", "2023-3B4", "Budi"),
	}
	f := newCodeFixture(students, []models.PaymentType{kasJuli}, nil)

	single, err := f.svc.Generate(context.Background(), "a1b2c3d4-0000", GenerateCodeRequest{PaymentTypeID: kasJuli.ID})
	require.NoError(t, err)
	assert.Equal(t, "A1B-7F2-1234", single.Code)
	intent, err := f.svc.Resolve(context.Background(), single.Code)
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4-0000", intent.Payer.ID)

	multi, err := f.svc.Generate(context.Background(), "a1b2c3d4-0000", GenerateCodeRequest{PaymentTypeID: kasJuli.ID, RecipientIDs: []string{"a1b2c3d4-0000", "b2c3d4e5-0000"}})
	require.NoError(t, err)
	assert.Equal(t, "MP-7F2-P9K1-9K1.3B4", multi.Code)
	assert.Equal(t, int64(10000), multi.TotalAmount)
	intent, err = f.svc.Resolve(context.Background(), multi.Code)
	require.NoError(t, err)
	assert.Len(t, intent.Recipients, 2)
}

func TestGenerateFallsBackToMultiPayForMPPrefixedIDs(t *testing.T) {
	students := []models.Student{student("mp12-0000", "2023-9K1", "Ani")}
	f := newCodeFixture(students, []models.PaymentType{kasJuli}, nil)

	code, err := f.svc.Generate(context.Background(), "mp12-0000", GenerateCodeRequest{PaymentTypeID: kasJuli.ID})
	require.NoError(t, err)
	assert.Equal(t, paycode.KindMulti, code.Kind)
	assert.Equal(t, "MP-7F2-P9K1-9K1", code.Code)
}

func TestGenerateRejectsUnknownInputs(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)

	_, err := f.svc.Generate(context.Background(), "s-payer", GenerateCodeRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = f.svc.Generate(context.Background(), "s-payer", GenerateCodeRequest{PaymentTypeID: "inactive"})
	assert.ErrorIs(t, err, appErrors.ErrPaymentTypeNotFound)
	_, err = f.svc.Generate(context.Background(), "ghost", GenerateCodeRequest{PaymentTypeID: kasJuli.ID})
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
	_, err = f.svc.Generate(context.Background(), "s-payer", GenerateCodeRequest{PaymentTypeID: kasJuli.ID, RecipientIDs: []string{"ghost"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestScanSessionLifecycle(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, "officer-1")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStateScanning, session.State)

	session, err = f.svc.ResolveSession(ctx, "officer-1", session.ID, "MP-7F2-PQQQ-3B4")
	assert.ErrorIs(t, err, appErrors.ErrPayerNotIdentified)
	require.NotNil(t, session)
	assert.Equal(t, models.ScanStateScanning, session.State)
	assert.NotEmpty(t, session.LastError)

	session, err = f.svc.ResolveSession(ctx, "officer-1", session.ID, "mp7f2p9k13b4")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStateResolved, session.State)
	assert.Equal(t, "MP-7F2-P9K1-3B4", session.Code)

	_, err = f.svc.GetSession(ctx, "officer-2", session.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	session, err = f.svc.ConfirmSession(ctx, "officer-1", session.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStateDone, session.State)
	require.NotNil(t, session.Summary)
	assert.Len(t, session.Summary.Recorded, 1)

	_, err = f.svc.ConfirmSession(ctx, "officer-1", session.ID, "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Len(t, f.ledger.inserted, 1)

	require.NoError(t, f.svc.CancelSession(ctx, "officer-1", session.ID))
	_, err = f.svc.GetSession(ctx, "officer-1", session.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestConfirmSessionRequiresResolvedIntent(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)
	session, err := f.svc.StartSession(context.Background(), "officer-1")
	require.NoError(t, err)

	_, err = f.svc.ConfirmSession(context.Background(), "officer-1", session.ID, "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Zero(t, f.ledger.calls)
}

func TestConfirmSessionLosesClaim(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)
	ctx := context.Background()
	session, err := f.svc.StartSession(ctx, "officer-1")
	require.NoError(t, err)
	_, err = f.svc.ResolveSession(ctx, "officer-1", session.ID, "MP-7F2-P9K1-3B4")
	require.NoError(t, err)

	claimed, err := f.sessions.Claim(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = f.svc.ConfirmSession(ctx, "officer-1", session.ID, "")
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Zero(t, f.ledger.calls)
}

func TestConfirmSessionReleasesClaimWhenStoreFails(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)
	ctx := context.Background()
	session, err := f.svc.StartSession(ctx, "officer-1")
	require.NoError(t, err)
	_, err = f.svc.ResolveSession(ctx, "officer-1", session.ID, "MP-7F2-P9K1-3B4")
	require.NoError(t, err)

	f.sessions.saveErr = errors.New("redis: connection reset")
	_, err = f.svc.ConfirmSession(ctx, "officer-1", session.ID, "")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Zero(t, f.ledger.calls)

	stored, err := f.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStateResolved, stored.State)

	f.sessions.saveErr = nil
	done, err := f.svc.ConfirmSession(ctx, "officer-1", session.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStateDone, done.State)
	assert.Equal(t, 1, f.ledger.calls)
}

func TestCancelSessionWhileConfirmingIsRejected(t *testing.T) {
	f := newCodeFixture(scenarioStudents(), []models.PaymentType{kasJuli}, nil)
	now := time.Now()
	s := models.NewScanSession("busy", "officer-1", now)
	s, _ = s.Start(now)
	s, _ = s.Resolved("MP-7F2-P9K1-3B4", models.ResolvedIntent{Recipients: scenarioStudents()[:1]}, now)
	s, _ = s.Confirming(now)
	require.NoError(t, f.sessions.Save(context.Background(), s))

	err := f.svc.CancelSession(context.Background(), "officer-1", "busy")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}
