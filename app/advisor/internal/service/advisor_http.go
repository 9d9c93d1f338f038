package service

import (
	"context"
	"io"
	"mime"
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/document"
)

const (
	OperationAdvisorRegister       = "/invest_radar.advisor.v1.Advisor/Register"
	OperationAdvisorLogin          = "/invest_radar.advisor.v1.Advisor/Login"
	OperationAdvisorGetProfile     = "/invest_radar.advisor.v1.Advisor/GetProfile"
	OperationAdvisorUpdateProfile  = "/invest_radar.advisor.v1.Advisor/UpdateProfile"
	OperationAdvisorAnalyze        = "/invest_radar.advisor.v1.Advisor/Analyze"
	OperationAdvisorListAnalyses   = "/invest_radar.advisor.v1.Advisor/ListAnalyses"
	OperationAdvisorGetAnalysis    = "/invest_radar.advisor.v1.Advisor/GetAnalysis"
	OperationAdvisorUploadDocument = "/invest_radar.advisor.v1.Advisor/UploadDocument"
	OperationAdvisorGetDocument    = "/invest_radar.advisor.v1.Advisor/GetDocument"
)

// PublicOperations 不需要登录的接口
var PublicOperations = map[string]bool{
	OperationAdvisorRegister: true,
	OperationAdvisorLogin:    true,
}

// multipart 表单在内存中保留的上限，超出部分落到临时文件
const maxMemory = 8 << 20

func RegisterAdvisorHTTPServer(s *http.Server, srv *AdvisorService) {
	r := s.Route("/")
	r.POST("/v1/auth/register", handle(srv.Register, OperationAdvisorRegister, bindBody[RegisterReq]))
	r.POST("/v1/auth/login", handle(srv.Login, OperationAdvisorLogin, bindBody[LoginReq]))
	r.GET("/v1/profile", handle(srv.GetProfile, OperationAdvisorGetProfile, bindNone[GetProfileReq]))
	r.PUT("/v1/profile", handle(srv.UpdateProfile, OperationAdvisorUpdateProfile, bindBody[UpdateProfileReq]))
	r.POST("/v1/analyses", handle(srv.Analyze, OperationAdvisorAnalyze, bindBody[AnalyzeReq]))
	r.GET("/v1/analyses", handle(srv.ListAnalyses, OperationAdvisorListAnalyses, bindQuery[ListAnalysesReq]))
	r.GET("/v1/analyses/{id}", handle(srv.GetAnalysis, OperationAdvisorGetAnalysis, bindVars[GetByIDReq]))
	r.POST("/v1/documents", _Advisor_UploadDocument0_HTTP_Handler(srv))
	r.GET("/v1/documents/{id}", handle(srv.GetDocument, OperationAdvisorGetDocument, bindVars[GetByIDReq]))
}

type binder[T any] func(ctx http.Context, in *T) error

func bindBody[T any](ctx http.Context, in *T) error  { return ctx.Bind(in) }
func bindQuery[T any](ctx http.Context, in *T) error { return ctx.BindQuery(in) }
func bindVars[T any](ctx http.Context, in *T) error  { return ctx.BindVars(in) }
func bindNone[T any](http.Context, *T) error         { return nil }

// handle 绑定请求，设置 operation 后经过中间件链调用 fn
func handle[T, R any](fn func(context.Context, *T) (*R, error), operation string, bind binder[T]) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in T
		if err := bind(ctx, &in); err != nil {
			return errors.BadRequest("INVALID_INPUT", err.Error())
		}
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(ctx, req.(*T))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

// _Advisor_UploadDocument0_HTTP_Handler 接受 multipart 的 file 字段，或者直接以请求体作为文档内容。
// 请求体在鉴权通过后才读取。
func _Advisor_UploadDocument0_HTTP_Handler(srv *AdvisorService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		r := ctx.Request()
		http.SetOperation(ctx, OperationAdvisorUploadDocument)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			doc, err := readDocument(r)
			if err != nil {
				return nil, err
			}
			return srv.UploadDocument(ctx, doc)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func readDocument(r *nethttp.Request) (*document.Document, error) {
	ct := r.Header.Get("Content-Type")
	if mt, _, _ := mime.ParseMediaType(ct); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, errors.BadRequest("INVALID_INPUT", err.Error())
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			return nil, errors.BadRequest("INVALID_INPUT", "multipart field \"file\" is required")
		}
		defer f.Close()
		data, err := readLimited(f)
		if err != nil {
			return nil, err
		}
		return &document.Document{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
	}

	data, err := readLimited(r.Body)
	if err != nil {
		return nil, err
	}
	return &document.Document{Name: r.URL.Query().Get("name"), ContentType: ct, Data: data}, nil
}

func readLimited(rd io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, document.MaxSize+1))
	if err != nil {
		return nil, errors.BadRequest("INVALID_INPUT", err.Error())
	}
	if len(data) > document.MaxSize {
		return nil, errors.New(413, "DOCUMENT_TOO_LARGE", "document exceeds the size limit")
	}
	return data, nil
}
