/*
Copyright 2025 The vsanadm Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vsphere

import (
	"context"
	"fmt"
	"path"

	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/vim25/soap"

	"github.com/vsphere-ops/vsanadm/pkg/common/logger"
)

// UploadToDatastore uploads a local file to the named datastore in this
// datacenter and returns the resulting datastore path, e.g.
// "[datastore1] patches/bundle.zip".
func (dc *Datacenter) UploadToDatastore(ctx context.Context,
	localPath, datastoreName, remotePath string) (string, error) {
	log := logger.GetLogger(ctx)
	finder := find.NewFinder(dc.Client(), false)
	finder.SetDatacenter(dc.Datacenter)
	ds, err := finder.Datastore(ctx, datastoreName)
	if err != nil {
		log.Errorf("failed to find datastore %q in datacenter %q. err: %v",
			datastoreName, dc.Name(), err)
		return "", fmt.Errorf("datastore %q not found: %w", datastoreName, err)
	}
	if remotePath == "" {
		remotePath = path.Base(localPath)
	}
	err = ds.UploadFile(ctx, localPath, remotePath, &soap.DefaultUpload)
	if err != nil {
		log.Errorf("failed to upload %q to datastore %q. err: %v", localPath, datastoreName, err)
		return "", err
	}
	dsPath := ds.Path(remotePath)
	log.Infof("uploaded %q to %q", localPath, dsPath)
	return dsPath, nil
}
