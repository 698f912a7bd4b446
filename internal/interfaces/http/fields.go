package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
)

// parseFields extrae el cuerpo como mapa de texto. Acepta JSON (números y booleanos se pasan
// a texto) o formulario urlencoded/multipart. Un cuerpo vacío da un mapa vacío.
func parseFields(c *fiber.Ctx) (stock.Fields, error) {
	fields := stock.Fields{}
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return fields, nil
	}

	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	switch {
	case strings.HasPrefix(ct, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			fields[string(k)] = string(v)
		})
		return fields, nil
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for k, vs := range form.Value {
			if len(vs) > 0 {
				fields[k] = vs[0]
			}
		}
		return fields, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("campo %q: se esperaba un valor simple", k)
		}
	}
	return fields, nil
}
