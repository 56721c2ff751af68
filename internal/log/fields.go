package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldChitID    = "chit_id"
	FieldChitName  = "chit_name"
	FieldMemberID  = "member_id"
	FieldSlotID    = "slot_id"
	FieldMonth     = "month"
	FieldPaymentID = "payment_id"
	FieldAmount    = "amount"
	FieldBidAmount = "bid_amount"
	FieldSheetsRef = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentChit      = "chit"
	ComponentSchedule  = "schedule"
	ComponentPayment   = "payment"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpAssign   = "assign"
	OpAuction  = "auction"
	OpSync     = "sync"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
