// Package httpclient is the shared HTTP client core: every API call of the
// application goes through one Client, which composes a request encoder,
// an ordered interceptor pipeline, a timeout-bounded transport and a single
// normalized error shape.
//
// Each call runs building → request-intercepted → sent →
// response-intercepted → succeeded | failed. Response interceptors see
// every received response before the 2xx decision, which is how the
// session interceptors react to a 401 even when the caller ignores it.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Timeout: 10 * time.Second,
//	})
//	httpclient.InstallSessionInterceptors(client.Registry(), httpclient.SessionConfig{
//	    Tokens:    store,
//	    Navigator: history,
//	})
//
//	resp, err := client.Get(ctx, "/tenants", map[string]string{"status": "ACTIVE"})
//	if err != nil {
//	    e, _ := httpclient.AsError(err)
//	    // e.Status, e.Message, e.Data
//	}
//
// # Uploads
//
//	resp, err := client.Upload(ctx, "/files", &httpclient.MultipartBody{
//	    Files: []httpclient.FileField{{FieldName: "file", FileName: "logo.png", Data: png}},
//	})
package httpclient
