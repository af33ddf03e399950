package storage

import "testing"

func TestOpen(t *testing.T) {
	store, p, err := Open("runs/G_1.ckpt", S3Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*Local); !ok || p != "runs/G_1.ckpt" {
		t.Fatalf("Open(local) = %T, %q", store, p)
	}

	store, p, err = Open("s3://models/vits/G_1.ckpt", S3Options{Region: "us-west-2", AccessKey: "ak", SecretKey: "sk"})
	if err != nil {
		t.Fatal(err)
	}
	s3store, ok := store.(*S3Store)
	if !ok {
		t.Fatalf("Open(s3) = %T", store)
	}
	if s3store.Bucket() != "models" || p != "vits/G_1.ckpt" {
		t.Fatalf("bucket %q path %q", s3store.Bucket(), p)
	}

	if _, _, err := Open("s3:///no-bucket", S3Options{}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
	if !IsRemote("s3://a/b") || IsRemote("/tmp/a") {
		t.Fatal("IsRemote misclassified")
	}
}
