// Package template wraps message text in one of the fixed HTML structures
// used for outgoing emails. Rendering is a pure function: identical inputs
// always produce identical output and no external state is consulted.
package template

import "fmt"

// Kind selects which structural wrapper is applied to the message text.
type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindOrderStatus       Kind = "order_status"
	KindDefault           Kind = "default"
)

// Render wraps message in the HTML template for the given kind.
// Any unrecognized kind, including the explicit "default", falls back to the
// generic template.
func Render(kind Kind, message string) string {
	switch kind {
	case KindOrderConfirmation:
		return fmt.Sprintf(`<html>
<body>
    <h2>¡Gracias por tu pedido!</h2>
    <p>Hemos recibido tu pedido correctamente.</p>
    <div style="background-color: #f5f5f5; padding: 15px; margin: 10px 0;">
        %s
    </div>
    <p>Te enviaremos actualizaciones sobre el estado de tu pedido.</p>
    <p>¡Gracias por elegirnos!</p>
</body>
</html>`, message)
	case KindOrderStatus:
		return fmt.Sprintf(`<html>
<body>
    <h2>Actualización de tu pedido</h2>
    <div style="background-color: #e7f3ff; padding: 15px; margin: 10px 0;">
        %s
    </div>
    <p>Gracias por tu paciencia.</p>
</body>
</html>`, message)
	default:
		return fmt.Sprintf(`<html>
<body>
    <h2>Notificación</h2>
    <p>%s</p>
</body>
</html>`, message)
	}
}
