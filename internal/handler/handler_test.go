package handler_test

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"printshop-scheduler/internal/account"
	"printshop-scheduler/internal/auth"
	"printshop-scheduler/internal/files"
	"printshop-scheduler/internal/handler"
	"printshop-scheduler/internal/middleware"
	"printshop-scheduler/internal/model"
	"printshop-scheduler/internal/notify"
	"printshop-scheduler/internal/notify/notifytest"
	"printshop-scheduler/internal/store/memstore"
	"printshop-scheduler/internal/worker"
	"printshop-scheduler/internal/workflow"
)

const (
	secret = "test-secret"
	domain = "@davao.sti.edu.ph"
	anaSID = "02000111"
)

var (
	reyes = auth.Principal{Email: "reyes@davao.sti.edu.ph", Name: "Prof. Reyes", Role: "Faculty"}
	ana   = auth.Principal{Email: "ana.111@davao.sti.edu.ph", Name: "Ana Cruz", Role: "Student", StudentID: anaSID}
	ben   = auth.Principal{Email: "ben.222@davao.sti.edu.ph", Name: "Ben Lim", Role: "Student", StudentID: "02000222"}
)

type env struct {
	h    *handler.Handler
	pool *worker.Pool
	mail *notifytest.Recorder
}

func setup(t *testing.T) *env {
	t.Helper()
	st := memstore.New()
	if _, err := st.AddToRoster(context.Background(), anaSID); err != nil {
		t.Fatalf("roster: %v", err)
	}
	dir := account.New(st, notify.ProberFunc(func(context.Context, string) error { return nil }))
	fs, err := files.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	pool := worker.New(worker.Config{Workers: 1, QueueSize: 64, TaskTimeout: time.Second})
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })
	rec := &notifytest.Recorder{}
	disp := notify.NewDispatcher(rec, pool, "shop@davao.sti.edu.ph", "")
	engine := workflow.New(st, dir, fs, pool, disp)
	return &env{h: handler.New(engine, dir), pool: pool, mail: rec}
}

func as(p auth.Principal) context.Context {
	return middleware.WithPrincipal(context.Background(), p)
}

func ensure(t *testing.T, e *env, p auth.Principal) *handler.AccountResponse {
	t.Helper()
	r, err := e.h.EnsureAccount(as(p), &handler.EnsureAccountRequest{})
	if err != nil {
		t.Fatalf("ensure %s: %v", p.Email, err)
	}
	return r
}

func createReq(file string) *handler.CreateAppointmentRequest {
	return &handler.CreateAppointmentRequest{RequestDetails: workflow.RequestDetails{
		FileName:  file,
		Copies:    2,
		PaperSize: "A4",
		Urgency:   "URGENT",
		Date:      "15 March, 2024",
		Time:      "9:30 AM",
	}}
}

func code(err error) codes.Code {
	s, _ := status.FromError(err)
	return s.Code()
}

func TestEnsureAccount(t *testing.T) {
	e := setup(t)

	r := ensure(t, e, ana)
	if !r.Created {
		t.Fatal("first login should create the account")
	}
	if !r.Account.IsPaid || r.Account.IsAdmin || r.Account.Role != model.RoleStudent {
		t.Errorf("unexpected account %+v", r.Account)
	}
	if ensure(t, e, ana).Created {
		t.Fatal("second login must not create")
	}

	if r := ensure(t, e, reyes); !r.Account.IsAdmin {
		t.Error("faculty should be admin")
	}

	_, err := e.h.EnsureAccount(as(auth.Principal{Email: "x@davao.sti.edu.ph", Name: "X", Role: "Janitor"}), &handler.EnsureAccountRequest{})
	if code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for unknown role, got %v", code(err))
	}
}

func TestNoPrincipal(t *testing.T) {
	e := setup(t)
	_, err := e.h.CreateAppointment(context.Background(), createReq("a.pdf"))
	if code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", code(err))
	}
}

func TestCreateAndList(t *testing.T) {
	e := setup(t)
	ensure(t, e, ana)

	cr, err := e.h.CreateAppointment(as(ana), createReq("thesis.pdf"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(cr.RequestID) != 6 {
		t.Errorf("expected 6 digit request id, got %q", cr.RequestID)
	}

	lr, err := e.h.ListMyAppointments(as(ana), &handler.ListAppointmentsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if lr.StatusFilter != model.DefaultFilter {
		t.Errorf("expected default filter, got %s", lr.StatusFilter)
	}
	if len(lr.Appointments) != 1 || lr.Appointments[0].RequestID != cr.RequestID {
		t.Fatalf("unexpected list %+v", lr.Appointments)
	}
	if lr.Appointments[0].Status != model.StatusPending {
		t.Errorf("status: got %s", lr.Appointments[0].Status)
	}
}

func TestCreateErrors(t *testing.T) {
	e := setup(t)
	ensure(t, e, ana)
	ensure(t, e, ben)

	_, err := e.h.CreateAppointment(as(ben), createReq("a.pdf"))
	if code(err) != codes.FailedPrecondition {
		t.Errorf("off-roster student: expected FailedPrecondition, got %v", code(err))
	}

	bad := createReq("a.pdf")
	bad.Urgency = "SOMEDAY"
	bad.Copies = 0
	_, err = e.h.CreateAppointment(as(ana), bad)
	if code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", code(err))
	}
	s, _ := status.FromError(err)
	var fields []string
	for _, d := range s.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.FieldViolations {
				fields = append(fields, v.Field)
			}
		}
	}
	if len(fields) == 0 {
		t.Fatal("expected BadRequest field violations")
	}

	_, err = e.h.CreateAppointment(as(auth.Principal{Email: "ghost@davao.sti.edu.ph"}), createReq("a.pdf"))
	if code(err) != codes.NotFound {
		t.Errorf("unregistered caller: expected NotFound, got %v", code(err))
	}
}

func TestTransitions(t *testing.T) {
	e := setup(t)
	ensure(t, e, reyes)
	ensure(t, e, ana)
	cr, _ := e.h.CreateAppointment(as(ana), createReq("a.pdf"))

	_, err := e.h.TransitionAppointment(as(ana), &handler.TransitionAppointmentRequest{RequestID: cr.RequestID, Status: "Done"})
	if code(err) != codes.PermissionDenied {
		t.Errorf("student transition: expected PermissionDenied, got %v", code(err))
	}

	_, err = e.h.TransitionAppointment(as(reyes), &handler.TransitionAppointmentRequest{RequestID: cr.RequestID, Status: "Finished"})
	if code(err) != codes.InvalidArgument {
		t.Errorf("unknown status: expected InvalidArgument, got %v", code(err))
	}

	r, err := e.h.TransitionAppointment(as(reyes), &handler.TransitionAppointmentRequest{RequestID: cr.RequestID, Status: "Done"})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if r.Appointment.Status != model.StatusDone {
		t.Errorf("status: got %s", r.Appointment.Status)
	}

	_, err = e.h.CancelAppointment(as(ana), &handler.CancelAppointmentRequest{RequestID: cr.RequestID})
	if code(err) != codes.FailedPrecondition {
		t.Errorf("cancel done: expected FailedPrecondition, got %v", code(err))
	}

	_, err = e.h.CancelAppointment(as(ana), &handler.CancelAppointmentRequest{RequestID: "000000"})
	if code(err) != codes.NotFound {
		t.Errorf("cancel unknown: expected NotFound, got %v", code(err))
	}

	_, err = e.h.CancelAppointment(as(ana), &handler.CancelAppointmentRequest{})
	if code(err) != codes.InvalidArgument {
		t.Errorf("cancel without id: expected InvalidArgument, got %v", code(err))
	}
}

func TestCancelOthersHidden(t *testing.T) {
	e := setup(t)
	ensure(t, e, ana)
	ensure(t, e, ben)
	cr, _ := e.h.CreateAppointment(as(ana), createReq("a.pdf"))

	// ben cant see ana's appointment
	_, err := e.h.CancelAppointment(as(ben), &handler.CancelAppointmentRequest{RequestID: cr.RequestID})
	if code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", code(err))
	}
}

func TestAdminOperations(t *testing.T) {
	e := setup(t)
	ensure(t, e, reyes)
	ensure(t, e, ana)
	ensure(t, e, ben)

	_, err := e.h.ListAccounts(as(ana), &handler.Empty{})
	if code(err) != codes.PermissionDenied {
		t.Errorf("student list accounts: expected PermissionDenied, got %v", code(err))
	}
	_, err = e.h.ListAllAppointments(as(ana), &handler.ListAppointmentsRequest{StatusFilter: "All"})
	if code(err) != codes.PermissionDenied {
		t.Errorf("student list all: expected PermissionDenied, got %v", code(err))
	}

	la, err := e.h.ListAccounts(as(reyes), &handler.Empty{})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(la.Accounts) != 3 {
		t.Errorf("expected 3 accounts, got %d", len(la.Accounts))
	}

	r, err := e.h.SetPaid(as(reyes), &handler.SetPaidRequest{StudentID: anaSID, Paid: false})
	if err != nil || !r.Existed {
		t.Fatalf("set paid: %v %+v", err, r)
	}
	_, err = e.h.CreateAppointment(as(ana), createReq("a.pdf"))
	if code(err) != codes.FailedPrecondition {
		t.Errorf("revoked student: expected FailedPrecondition, got %v", code(err))
	}

	r, err = e.h.SetAdmin(as(reyes), &handler.SetAdminRequest{Email: "nobody@davao.sti.edu.ph", Admin: true})
	if err != nil || r.Existed {
		t.Fatalf("set admin on unknown: %v %+v", err, r)
	}
	r, err = e.h.SetAdmin(as(reyes), &handler.SetAdminRequest{Email: ben.Email, Admin: true})
	if err != nil || !r.Existed {
		t.Fatalf("set admin: %v %+v", err, r)
	}
	if _, err := e.h.ListAccounts(as(ben), &handler.Empty{}); err != nil {
		t.Errorf("promoted student should list accounts: %v", err)
	}
}

func TestStatusFilter(t *testing.T) {
	e := setup(t)
	ensure(t, e, ana)

	r, err := e.h.GetStatusFilter(as(ana), &handler.Empty{})
	if err != nil || r.StatusFilter != "Pending" {
		t.Fatalf("default filter: %v %+v", err, r)
	}
	if _, err := e.h.SetStatusFilter(as(ana), &handler.StatusFilterRequest{StatusFilter: "All"}); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	lr, err := e.h.ListMyAppointments(as(ana), &handler.ListAppointmentsRequest{})
	if err != nil || lr.StatusFilter != "All" {
		t.Fatalf("saved filter not applied: %v %+v", err, lr)
	}

	_, err = e.h.SetStatusFilter(as(ana), &handler.StatusFilterRequest{StatusFilter: "Someday"})
	if code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", code(err))
	}
	_, err = e.h.ListMyAppointments(as(ana), &handler.ListAppointmentsRequest{StatusFilter: "Someday"})
	if code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", code(err))
	}
}

func TestSecondaryEmail(t *testing.T) {
	e := setup(t)
	ensure(t, e, ana)
	ensure(t, e, ben)

	if _, err := e.h.SetSecondaryEmail(as(ana), &handler.SetSecondaryEmailRequest{SecondaryEmail: "ana@gmail.com"}); err != nil {
		t.Fatalf("set own secondary: %v", err)
	}
	r := ensure(t, e, ana)
	if r.Account.SecondaryEmail != "ana@gmail.com" {
		t.Errorf("secondary not saved: %+v", r.Account)
	}

	_, err := e.h.SetSecondaryEmail(as(ana), &handler.SetSecondaryEmailRequest{SecondaryEmail: "not-an-email"})
	if code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", code(err))
	}
	_, err = e.h.SetSecondaryEmail(as(ben), &handler.SetSecondaryEmailRequest{Email: ana.Email, SecondaryEmail: "x@gmail.com"})
	if code(err) != codes.PermissionDenied {
		t.Errorf("expected PermissionDenied, got %v", code(err))
	}
}

func TestGetUpload(t *testing.T) {
	e := setup(t)
	ensure(t, e, reyes)
	ensure(t, e, ana)
	ensure(t, e, ben)

	req := createReq("poster.pdf")
	req.FileData = []byte("%PDF-1.4 poster")
	if _, err := e.h.CreateAppointment(as(ana), req); err != nil {
		t.Fatalf("create: %v", err)
	}
	// wait for the background save
	if err := e.pool.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	r, err := e.h.GetUpload(as(reyes), &handler.GetUploadRequest{StudentID: anaSID, FileName: "poster.pdf"})
	if err != nil {
		t.Fatalf("admin get upload: %v", err)
	}
	if string(r.Data) != "%PDF-1.4 poster" {
		t.Errorf("unexpected data %q", r.Data)
	}
	if _, err := e.h.GetUpload(as(ana), &handler.GetUploadRequest{StudentID: anaSID, FileName: "poster.pdf"}); err != nil {
		t.Errorf("owner get upload: %v", err)
	}

	_, err = e.h.GetUpload(as(ben), &handler.GetUploadRequest{StudentID: anaSID, FileName: "poster.pdf"})
	if code(err) != codes.PermissionDenied {
		t.Errorf("other student: expected PermissionDenied, got %v", code(err))
	}
	_, err = e.h.GetUpload(as(reyes), &handler.GetUploadRequest{StudentID: anaSID, FileName: "missing.pdf"})
	if code(err) != codes.NotFound {
		t.Errorf("missing file: expected NotFound, got %v", code(err))
	}
}

// ----- over the wire -----

func dial(t *testing.T, e *env) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.RequestID(),
		middleware.Auth(secret, domain),
	))
	handler.Register(srv, e.h)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(handler.CodecName)),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearer(t *testing.T, p auth.Principal) context.Context {
	t.Helper()
	tok, err := auth.MakeToken(p, secret, time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
}

func TestOverGRPC(t *testing.T) {
	e := setup(t)
	conn := dial(t, e)

	var acct handler.AccountResponse
	if err := conn.Invoke(bearer(t, ana), handler.FullMethod("EnsureAccount"), &handler.EnsureAccountRequest{}, &acct); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !acct.Created || acct.Account.Email != ana.Email {
		t.Fatalf("unexpected account %+v", acct)
	}

	var cr handler.CreateAppointmentResponse
	if err := conn.Invoke(bearer(t, ana), handler.FullMethod("CreateAppointment"), createReq("a.pdf"), &cr); err != nil {
		t.Fatalf("create: %v", err)
	}

	var lr handler.ListAppointmentsResponse
	if err := conn.Invoke(bearer(t, ana), handler.FullMethod("ListMyAppointments"), &handler.ListAppointmentsRequest{}, &lr); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lr.Appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(lr.Appointments))
	}
	got := lr.Appointments[0]
	if got.RequestID != cr.RequestID || got.Date.String() != "15 March, 2024" || got.Time.String() != "9:30 AM" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	var empty handler.Empty
	err := conn.Invoke(context.Background(), handler.FullMethod("GetStatusFilter"), &handler.Empty{}, &empty)
	if code(err) != codes.Unauthenticated {
		t.Errorf("no token: expected Unauthenticated, got %v", code(err))
	}

	outsider := auth.Principal{Email: "ana@gmail.com", Name: "Ana", Role: "Student", StudentID: anaSID}
	err = conn.Invoke(bearer(t, outsider), handler.FullMethod("EnsureAccount"), &handler.EnsureAccountRequest{}, &acct)
	if code(err) != codes.PermissionDenied {
		t.Errorf("outside domain: expected PermissionDenied, got %v", code(err))
	}
}
