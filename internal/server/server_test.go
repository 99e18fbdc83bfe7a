package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/offer-generator/internal/catalog"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/document"
	"github.com/joseph-ayodele/offer-generator/internal/llm"
	"github.com/joseph-ayodele/offer-generator/internal/pipeline"
	"github.com/joseph-ayodele/offer-generator/internal/repository"
)

const ducatoReply = `{
  "client": {"name": "Chłodnia Sp. z o.o.", "address": "Poznań"},
  "vehicle": {"brand": "FIAT", "model": "ducato", "conversion_price": 1},
  "unit": {"model": "Zanotti Z200SA000E/EU", "list_price": 12100},
  "heating": {},
  "heater_kit": {}
}`

type fixture struct {
	svc       *OfferService
	outputDir string
	reply     string
	err       error
}

func newFixture(t *testing.T, persist bool) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	dir := t.TempDir()

	db, err := ConnectDB(ctx, common.DatabaseConfig{DSN: filepath.Join(dir, "offers.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	_, err = catalog.NewService(repository.NewCatalogWriter(db, logger), logger).Seed(ctx)
	require.NoError(t, err)

	f := &fixture{outputDir: filepath.Join(dir, "out"), reply: ducatoReply}
	completer := llm.CompleterFunc(func(context.Context, llm.CompletionRequest) (string, error) {
		return f.reply, f.err
	})
	assembler := document.NewAssembler(common.DocumentConfig{
		OutputDir:     f.outputDir,
		PhotoCacheDir: filepath.Join(dir, "cache"),
		CompanyName:   "Autoadaptacje",
	}, logger)
	fixed := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	cat := repository.NewCatalogRepository(db, logger)
	proc := pipeline.NewProcessor(logger, pipeline.Config{
		Currency:           "PLN",
		AccessorySurcharge: 100,
		Now:                func() time.Time { return fixed },
	}, cat, completer, assembler)

	var offers repository.OfferRepository
	if persist {
		offers = repository.NewOfferRepository(db, logger)
	}
	f.svc = NewOfferService(proc, cat, offers, logger)
	return f
}

func (f *fixture) grpcClient(t *testing.T) (*OfferClient, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs, _ := NewGRPCServer(f.svc, zap.NewNop())
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewOfferClient(conn), conn
}

func (f *fixture) httpServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := NewHTTPServer(f.svc, f.outputDir, "PLN", func(context.Context) error { return nil }, zap.NewNop())
	ts := httptest.NewServer(h.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestGRPC_GenerateGetList(t *testing.T) {
	f := newFixture(t, true)
	client, _ := f.grpcClient(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDHeader, "req-42")

	var header metadata.MD
	out, err := client.Call(ctx, "GenerateOffer", mustStruct(t, map[string]any{
		"text":        "Fiat Ducato, Zanotti, LED",
		"accessories": []any{"led", "side_door_none"},
	}), grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(requestIDHeader))

	fields := out.GetFields()
	assert.Equal(t, "req-42", fields["request_id"].GetStringValue())
	summary := fields["summary"].GetStructValue().GetFields()
	assert.Equal(t, 23200.0, summary["net_total"].GetNumberValue())
	vehicle := fields["offer"].GetStructValue().GetFields()["vehicle"].GetStructValue().GetFields()
	assert.Equal(t, 11000.0, vehicle["conversion_price"].GetNumberValue())
	assert.True(t, strings.HasSuffix(fields["document_name"].GetStringValue(), ".pdf"))

	id := fields["record_id"].GetStringValue()
	require.NotEmpty(t, id)
	got, err := client.Call(ctx, "GetOffer", mustStruct(t, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, "GENERATED", got.GetFields()["status"].GetStringValue())
	assert.Equal(t, 23200.0, got.GetFields()["net_total"].GetNumberValue())

	list, err := client.Call(ctx, "ListOffers", nil)
	require.NoError(t, err)
	offers := list.GetFields()["offers"].GetListValue().GetValues()
	require.Len(t, offers, 1)
	assert.True(t, strings.EqualFold("Fiat Ducato", offers[0].GetStructValue().GetFields()["vehicle"].GetStringValue()))

	exp, err := client.Call(ctx, "ExportOffers", mustStruct(t, map[string]any{"from": "2026-10-01"}))
	require.NoError(t, err)
	b, err := base64.StdEncoding.DecodeString(exp.GetFields()["xlsx_base64"].GetStringValue())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("PK")))
}

func TestGRPC_ErrorCodes(t *testing.T) {
	f := newFixture(t, true)
	client, _ := f.grpcClient(t)
	ctx := context.Background()

	generate := func(text string) error {
		_, err := client.Call(ctx, "GenerateOffer", mustStruct(t, map[string]any{"text": text}))
		return err
	}

	assert.Equal(t, codes.InvalidArgument, status.Code(generate("   ")))

	f.reply = "I could not find any offer details."
	assert.Equal(t, codes.FailedPrecondition, status.Code(generate("something")))

	f.reply = strings.Replace(ducatoReply, "ducato", "Transit", 1)
	assert.Equal(t, codes.NotFound, status.Code(generate("Ford Transit")))

	f.reply, f.err = "", errors.New("connection reset")
	assert.Equal(t, codes.Unavailable, status.Code(generate("Fiat Ducato")))

	_, err := client.Call(ctx, "GetOffer", mustStruct(t, map[string]any{"id": "not-a-uuid"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = client.Call(ctx, "GetOffer", mustStruct(t, map[string]any{"id": "6c0e8d1e-3c55-4f57-9b1b-2a0d0e6d5a11"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_CatalogAndHealth(t *testing.T) {
	f := newFixture(t, false)
	client, conn := f.grpcClient(t)
	ctx := context.Background()

	vs, err := client.Call(ctx, "ListVehicles", nil)
	require.NoError(t, err)
	assert.Len(t, vs.GetFields()["vehicles"].GetListValue().GetValues(), 5)

	us, err := client.Call(ctx, "ListUnits", nil)
	require.NoError(t, err)
	assert.Len(t, us.GetFields()["units"].GetListValue().GetValues(), 2)

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: offerServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	// history disabled
	_, err = client.Call(ctx, "ExportOffers", nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_ReflectionDescribesOfferService(t *testing.T) {
	f := newFixture(t, false)
	_, conn := f.grpcClient(t)

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: offerServiceName},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	require.Nil(t, resp.GetErrorResponse())

	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	require.NotEmpty(t, files)
	var fdp descriptorpb.FileDescriptorProto
	require.NoError(t, proto.Unmarshal(files[0], &fdp))
	assert.Equal(t, OfferServiceDesc.Metadata, fdp.GetName())
	require.Len(t, fdp.GetService(), 1)
	assert.Len(t, fdp.GetService()[0].GetMethod(), len(OfferServiceDesc.Methods))
	assert.Equal(t, ".google.protobuf.Struct", fdp.GetService()[0].GetMethod()[0].GetInputType())
	require.NoError(t, stream.CloseSend())
}

func postJSON(t *testing.T, target string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(target, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHTTP_GenerateAndDownload(t *testing.T) {
	f := newFixture(t, true)
	ts := f.httpServer(t)

	resp := postJSON(t, ts.URL+"/api/offers", GenerateInput{Text: "Fiat Ducato z Zanotti"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	out := decodeBody[OfferResponse](t, resp)
	assert.Equal(t, 23100.0, out.Summary.NetTotal)
	assert.Equal(t, "2026-10-15", out.Offer.OfferDate)
	require.NotEmpty(t, out.DocumentName)

	doc, err := http.Get(ts.URL + "/documents/" + url.PathEscape(out.DocumentName))
	require.NoError(t, err)
	defer doc.Body.Close()
	assert.Equal(t, http.StatusOK, doc.StatusCode)
	assert.Equal(t, "application/pdf", doc.Header.Get("Content-Type"))
	head := make([]byte, 4)
	_, err = io.ReadFull(doc.Body, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))

	for _, name := range []string{"offers.db", "..%2Foffers.db", "missing.pdf"} {
		r, err := http.Get(ts.URL + "/documents/" + name)
		require.NoError(t, err)
		_ = r.Body.Close()
		assert.Equal(t, http.StatusNotFound, r.StatusCode, name)
	}

	rebuilt := postJSON(t, ts.URL+"/api/offers/rebuild", RebuildInput{ID: out.RecordID, Accessories: []string{"meat_rails"}})
	require.Equal(t, http.StatusOK, rebuilt.StatusCode)
	rb := decodeBody[OfferResponse](t, rebuilt)
	assert.Equal(t, 23200.0, rb.Summary.NetTotal)
	assert.Equal(t, out.Offer.OfferNumber, rb.Offer.OfferNumber)
	assert.NotEqual(t, out.RecordID, rb.RecordID)

	list, err := http.Get(ts.URL + "/api/offers?limit=10")
	require.NoError(t, err)
	defer list.Body.Close()
	offers := decodeBody[map[string][]map[string]any](t, list)["offers"]
	require.Len(t, offers, 2)
	assert.Equal(t, "REBUILT", offers[0]["status"])

	exp, err := http.Get(ts.URL + "/api/offers/export?from=2026-10-01&to=2026-10-31")
	require.NoError(t, err)
	defer exp.Body.Close()
	assert.Equal(t, http.StatusOK, exp.StatusCode)
	assert.Contains(t, exp.Header.Get("Content-Disposition"), "offers.xlsx")
}

func TestHTTP_ErrorStatuses(t *testing.T) {
	f := newFixture(t, false)
	ts := f.httpServer(t)

	resp := postJSON(t, ts.URL+"/api/offers", GenerateInput{Text: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, common.CodeEmptyInput, decodeBody[errorBody](t, resp).Code)

	f.reply = `{"vehicle": {"brand": "Ford", "model": "Transit"}}`
	resp = postJSON(t, ts.URL+"/api/offers", GenerateInput{Text: "Ford Transit"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, common.CodeVehicleNotInCatalog, decodeBody[errorBody](t, resp).Code)

	f.reply = `{"vehicle": {"brand": "Fiat",}`
	resp = postJSON(t, ts.URL+"/api/offers", GenerateInput{Text: "Fiat"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	f.reply, f.err = "", errors.New("timeout")
	resp = postJSON(t, ts.URL+"/api/offers", GenerateInput{Text: "Fiat Ducato"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/offers", map[string]any{"text": "x", "output_path": "/etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	r, err := http.Get(ts.URL + "/api/offers/6c0e8d1e-3c55-4f57-9b1b-2a0d0e6d5a11")
	require.NoError(t, err)
	_ = r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestHTTP_FormAndCatalog(t *testing.T) {
	f := newFixture(t, false)
	ts := f.httpServer(t)

	page, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(page.Body)
	_ = page.Body.Close()
	assert.Contains(t, string(body), "Generate offer")
	assert.Contains(t, string(body), `value="led_lighting"`)

	form := url.Values{"text": {"Fiat Ducato z Zanotti"}, "accessory": {"led_lighting"}}
	res, err := http.PostForm(ts.URL+"/offers", form)
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "23,200.00 PLN")
	assert.Contains(t, string(body), "/documents/offer_")
	assert.Contains(t, string(body), `value="led_lighting" checked`)

	res, err = http.PostForm(ts.URL+"/offers", url.Values{"text": {" "}})
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, string(body), common.CodeEmptyInput)

	vs, err := http.Get(ts.URL + "/api/catalog/vehicles")
	require.NoError(t, err)
	defer vs.Body.Close()
	assert.Len(t, decodeBody[map[string][]map[string]any](t, vs)["vehicles"], 5)

	hz, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer hz.Body.Close()
	assert.Equal(t, "ok", decodeBody[HealthResponse](t, hz).Status)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		common.NewAppError(common.CodeRequiredFieldMissing, "m", nil): http.StatusBadRequest,
		common.NewAppError(common.CodeInvalidJSON, "m", nil):          http.StatusUnprocessableEntity,
		common.NewAppError(common.CodeDocumentWrite, "m", nil):        http.StatusInternalServerError,
		fmt.Errorf("x: %w", common.ErrNotFound):                       http.StatusNotFound,
		fmt.Errorf("x: %w", common.ErrInvalidInput):                   http.StatusBadRequest,
		errors.New("boom"):                                            http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, httpStatus(err), err.Error())
	}
}
