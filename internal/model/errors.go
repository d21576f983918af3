package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind はエラーの分類を表す。
type ErrorKind string

// 定義済みエラー分類
const (
	KindConfiguration     ErrorKind = "configuration"
	KindClientInput       ErrorKind = "client_input"
	KindProviderTransport ErrorKind = "provider_transport"
	KindVerification      ErrorKind = "verification"
)

// 定義済みエラーコード
const (
	ErrCodeNotConfigured        = "NOT_CONFIGURED"
	ErrCodeMissingCode          = "MISSING_CODE"
	ErrCodeMissingClaimedID     = "MISSING_CLAIMED_ID"
	ErrCodeProviderExchange     = "PROVIDER_EXCHANGE"
	ErrCodeProviderProfileFetch = "PROVIDER_PROFILE_FETCH"
	ErrCodeProviderTransport    = "PROVIDER_TRANSPORT"
	ErrCodeInvalidAssertion     = "INVALID_ASSERTION"
)

// AppError は呼び出し元にHTTPステータスとプレーンテキストで返すエラー。
// Messageはレスポンスボディにそのまま書き出される。
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode はエラー分類に対応するHTTPステータスを返す。
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindClientInput, KindVerification:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError はerrチェーンからAppErrorを取り出す。
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewConfigurationError はDiscord認証情報が未設定の場合のエラーを生成する。
func NewConfigurationError() *AppError {
	return &AppError{
		Kind:    KindConfiguration,
		Code:    ErrCodeNotConfigured,
		Message: "Discord OAuth is not configured. Set environment variables first.",
	}
}

// NewMissingCodeError は認可コードが無い場合のエラーを生成する。
func NewMissingCodeError() *AppError {
	return &AppError{
		Kind:    KindClientInput,
		Code:    ErrCodeMissingCode,
		Message: "Missing code parameter.",
	}
}

// NewMissingClaimedIDError はopenid.claimed_idが無い場合のエラーを生成する。
func NewMissingClaimedIDError() *AppError {
	return &AppError{
		Kind:    KindClientInput,
		Code:    ErrCodeMissingClaimedID,
		Message: "Missing claimed_id.",
	}
}

// NewProviderExchangeError はトークン交換がプロバイダーに拒否された場合のエラーを生成する。
// bodyにはプロバイダーのレスポンスボディを渡す。
func NewProviderExchangeError(body string) *AppError {
	return &AppError{
		Kind:    KindProviderTransport,
		Code:    ErrCodeProviderExchange,
		Message: "Failed to exchange code: " + body,
	}
}

// NewProviderProfileFetchError はプロフィール取得が失敗した場合のエラーを生成する。
func NewProviderProfileFetchError(body string) *AppError {
	return &AppError{
		Kind:    KindProviderTransport,
		Code:    ErrCodeProviderProfileFetch,
		Message: "Failed to fetch user: " + body,
	}
}

// NewProviderTransportError はプロバイダーとの通信自体が失敗した場合のエラーを生成する。
// providerは "discord" または "steam"。
func NewProviderTransportError(provider string, err error) *AppError {
	prefix := "Unexpected error: "
	if provider == "steam" {
		prefix = "Steam auth failed: "
	}
	return &AppError{
		Kind:    KindProviderTransport,
		Code:    ErrCodeProviderTransport,
		Message: prefix + err.Error(),
		Err:     err,
	}
}

// NewInvalidAssertionError はOpenIDアサーションの検証に失敗した場合のエラーを生成する。
func NewInvalidAssertionError() *AppError {
	return &AppError{
		Kind:    KindVerification,
		Code:    ErrCodeInvalidAssertion,
		Message: "Invalid Steam login.",
	}
}
