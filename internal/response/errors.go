package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrInvalidJoinCode    ErrCode = "INVALID_JOIN_CODE"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrNotRegistered     ErrCode = "NOT_REGISTERED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrPayloadTooLarge ErrCode = "PAYLOAD_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "メールアドレスまたはパスワードが正しくありません。"
	case ErrSessionInvalidated:
		return "セッションが終了しました。もう一度ログインしてください。"
	case ErrTokenRequired:
		return "認証トークンが必要です。"
	case ErrTokenInvalid:
		return "認証トークンが無効です。"
	case ErrTokenExpired:
		return "認証トークンの有効期限が切れています。"
	case ErrEmailTaken:
		return "このメールアドレスはすでに登録されています。"
	case ErrInvalidJoinCode:
		return "クラスコードが正しくありません。"

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrNotRegistered:
		return "名簿に登録されていません。先生に確認してください。"
	case ErrStudentAccessOnly:
		return "このリソースは生徒のみ利用できます。"
	case ErrTeacherAccessOnly:
		return "このリソースは先生のみ利用できます。"

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "入力内容を確認してください。"
	case ErrInvalidID:
		return "IDの形式が正しくありません。"
	case ErrInvalidPayload:
		return "リクエストの内容が正しくありません。"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "見つかりませんでした。"
	case ErrConflict:
		return "すでに存在します。"
	case ErrActionForbidden:
		return "この操作は許可されていません。"

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "ファイルを選択してください。"
	case ErrUnsupportedFile:
		return "対応していないファイル形式です。"
	case ErrPayloadTooLarge:
		return "画像のサイズが大きすぎます。"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "リクエストが多すぎます。しばらくしてから再度お試しください。"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "サーバーでエラーが発生しました。"
	default:
		return "予期しないエラーが発生しました。"
	}
}
