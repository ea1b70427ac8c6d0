package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestEnvelopeShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		write    func(c *gin.Context)
		wantCode int
		wantMsg  string
		wantData bool
	}{
		{"success", func(c *gin.Context) { Success(c, gin.H{"id": 1}) }, CodeSuccess, "success", true},
		{"param", func(c *gin.Context) { ParamError(c, "bad id") }, CodeParamError, "bad id", false},
		{"business", func(c *gin.Context) { BusinessError(c, CodeOverpayment, "too much") }, CodeOverpayment, "too much", false},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		tt.write(c)

		if w.Code != http.StatusOK {
			t.Fatalf("%s: http status = %d", tt.name, w.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if int(body["code"].(float64)) != tt.wantCode || body["message"] != tt.wantMsg {
			t.Fatalf("%s: body = %v", tt.name, body)
		}
		if _, ok := body["data"]; ok != tt.wantData {
			t.Fatalf("%s: data present = %v", tt.name, ok)
		}
	}
}
