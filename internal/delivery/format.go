package delivery

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
)

const PushTitle = "Price Alert"

var emailTemplate = template.Must(template.New("price-alert").Parse(`<html>
<body>
<h2>Price Alert: Target Price Reached!</h2>
<p>Good news! We found a flight matching your price alert{{if .AlertName}} "{{.AlertName}}"{{end}}.</p>
<ul>
<li><strong>Route:</strong> {{.Route}}</li>
<li><strong>Departure:</strong> {{.DepartureDate}}</li>
{{- if .ReturnDate}}
<li><strong>Return:</strong> {{.ReturnDate}}</li>
{{- end}}
<li><strong>Current price:</strong> {{.Currency}} {{.Price}}</li>
<li><strong>Your target price:</strong> {{.Currency}} {{.TargetPrice}}</li>
<li><strong>Provider:</strong> {{.Provider}}</li>
{{- if .Details.ValidatingCarrier}}
<li><strong>Airline:</strong> {{.Details.ValidatingCarrier}}</li>
{{- end}}
{{- if .Details.LastTicketingDate}}
<li><strong>Book before:</strong> {{.Details.LastTicketingDate}}</li>
{{- end}}
</ul>
<p>Book soon, fares change quickly.</p>
</body>
</html>`))

func EmailSubject(p domain.Payload) string {
	return fmt.Sprintf("Price Alert: %s - Target Price Reached!", p.Route)
}

func EmailBody(p domain.Payload) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return buf.String(), nil
}

func PushBody(p domain.Payload) string {
	return fmt.Sprintf("Target price reached for %s! Current price: %s %s", p.Route, p.Currency, p.Price)
}
