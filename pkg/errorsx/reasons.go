package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonASRTranscribe  ReasonCode = "asr_transcribe"
	ReasonASRRetry       ReasonCode = "asr_retry"
	ReasonASRRateLimit   ReasonCode = "asr_rate_limit"
	ReasonASRCircuitOpen ReasonCode = "asr_circuit_open"

	ReasonGrammarCorrect ReasonCode = "grammar_correct"

	ReasonDeliveryTimeout ReasonCode = "delivery_timeout"
	ReasonQueueClosed     ReasonCode = "queue_closed"

	ReasonProviderNotRegistered ReasonCode = "provider_not_registered"
	ReasonTransportSend         ReasonCode = "transport_send"
)
