package notify

// Job is the JSON payload put on the RabbitMQ queue for sending email.
// Messages are rendered before they are enqueued, so the worker only
// has to deliver them.
type Job struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}
